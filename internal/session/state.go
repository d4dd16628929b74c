package session

// Snapshot is a consistent copy of the session as the presentation layer sees
// it. Empty strings and a zero ChainID mean the field is absent.
type Snapshot struct {
	Connected bool
	Address   string
	Balance   string
	ChainID   uint64
	Network   string
	Currency  string

	Loading bool
	Err     string
}

// state is the connection bundle. It is only ever replaced as a whole on
// connect and disconnect, so either every field is set or none is.
type state struct {
	connected bool
	address   string
	balance   string
	chainID   uint64
	network   string
	currency  string

	client Client
	signer Signer
}

func (st state) snapshot() Snapshot {
	return Snapshot{
		Connected: st.connected,
		Address:   st.address,
		Balance:   st.balance,
		ChainID:   st.chainID,
		Network:   st.network,
		Currency:  st.currency,
	}
}
