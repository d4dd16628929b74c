package setup

import (
	"os"

	"github.com/yolodolo42/ethconnect/internal/chain"
	"github.com/yolodolo42/ethconnect/internal/config"
	"github.com/yolodolo42/ethconnect/internal/wallet"
	"golang.org/x/term"
)

// Status is what the keystore under a data directory holds
type Status struct {
	// Accounts are checksummed addresses in keystore order
	Accounts []string
	// Default is the preferred account if the keystore has it, else the first
	Default string
}

// HasWallet reports whether there is any account to connect with
func (s Status) HasWallet() bool {
	return len(s.Accounts) > 0
}

// Detect reads the keystore under dataDir and resolves preferred against it
func Detect(dataDir, preferred string, opts ...wallet.Option) (Status, error) {
	km, err := wallet.NewKeystoreManager(dataDir, opts...)
	if err != nil {
		return Status{}, err
	}

	var status Status
	for _, acc := range km.ListAccounts() {
		addr := acc.Address.Hex()
		status.Accounts = append(status.Accounts, addr)
		if preferred != "" && chain.SameAddress(preferred, addr) {
			status.Default = addr
		}
	}
	if status.Default == "" && status.HasWallet() {
		status.Default = status.Accounts[0]
	}
	return status, nil
}

// NeedsSetup reports whether the keystore provider is configured with an
// empty keystore
func NeedsSetup(cfg *config.Config) bool {
	if cfg.Provider != config.ProviderKeystore {
		return false
	}
	status, err := Detect(cfg.DataDir, cfg.Account)
	return err == nil && !status.HasWallet()
}

// IsInteractive returns true if stdin is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
