package session

import (
	"context"
	"math/big"

	"github.com/yolodolo42/ethconnect/internal/chain"
	"github.com/yolodolo42/ethconnect/internal/provider"
)

// Client is the chain client surface a session drives
type Client interface {
	GetSigner(ctx context.Context) (Signer, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	GetNetwork(ctx context.Context) (*chain.Network, error)
}

// Signer resolves the connected account
type Signer interface {
	GetAddress(ctx context.Context) (string, error)
}

// ClientFactory builds a chain client over an injected provider
type ClientFactory func(injected provider.Injected) Client

// NewBrowserClient is the default ClientFactory
func NewBrowserClient(injected provider.Injected) Client {
	return browserClient{chain.NewBrowserProvider(injected)}
}

type browserClient struct {
	*chain.BrowserProvider
}

func (c browserClient) GetSigner(ctx context.Context) (Signer, error) {
	signer, err := c.BrowserProvider.GetSigner(ctx)
	if err != nil {
		return nil, err
	}
	return signer, nil
}

// Reloader resets the hosting context after a chain change
type Reloader interface {
	Reload()
}

// ReloadFunc adapts a function to Reloader
type ReloadFunc func()

// Reload calls f
func (f ReloadFunc) Reload() {
	f()
}
