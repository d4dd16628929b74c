package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/yolodolo42/ethconnect/internal/provider"
)

var ErrNoSigner = errors.New("wallet returned no accounts")

// Network describes the chain the injected provider is on
type Network struct {
	ChainID  *big.Int
	Name     string
	Currency string
}

// BrowserProvider turns the raw request interface of an injected provider
// into typed calls
type BrowserProvider struct {
	injected provider.Injected
	chains   map[string]*ChainConfig
}

// NewBrowserProvider wraps an injected provider
func NewBrowserProvider(injected provider.Injected) *BrowserProvider {
	return &BrowserProvider{
		injected: injected,
		chains:   DefaultChains(),
	}
}

// Signer is the account the wallet exposed to this provider
type Signer struct {
	provider *BrowserProvider
	address  string
}

// GetSigner asks the wallet for account access and returns its first account
func (p *BrowserProvider) GetSigner(ctx context.Context) (*Signer, error) {
	raw, err := p.injected.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return nil, fmt.Errorf("failed to request accounts: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoSigner
	}

	address, err := GetAddress(accounts[0])
	if err != nil {
		return nil, fmt.Errorf("wallet returned bad account: %w", err)
	}

	return &Signer{provider: p, address: address}, nil
}

// GetAddress returns the checksummed signer address
func (s *Signer) GetAddress(ctx context.Context) (string, error) {
	if s.address == "" {
		return "", ErrNoSigner
	}
	return s.address, nil
}

// Provider returns the provider the signer was obtained from
func (s *Signer) Provider() *BrowserProvider {
	return s.provider
}

// GetBalance returns the latest native balance of address in wei
func (p *BrowserProvider) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	normalized, err := GetAddress(address)
	if err != nil {
		return nil, err
	}

	raw, err := p.injected.Request(ctx, "eth_getBalance", normalized, "latest")
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	var balance hexutil.Big
	if err := json.Unmarshal(raw, &balance); err != nil {
		return nil, fmt.Errorf("failed to decode balance: %w", err)
	}
	return balance.ToInt(), nil
}

// GetNetwork returns the active chain id and, for known chains, its name
func (p *BrowserProvider) GetNetwork(ctx context.Context) (*Network, error) {
	raw, err := p.injected.Request(ctx, "eth_chainId")
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	var chainID hexutil.Big
	if err := json.Unmarshal(raw, &chainID); err != nil {
		return nil, fmt.Errorf("failed to decode chain id: %w", err)
	}

	network := &Network{ChainID: chainID.ToInt(), Name: "unknown", Currency: "ETH"}
	if _, config, ok := LookupChainID(p.chains, network.ChainID); ok {
		network.Name = config.Name
		network.Currency = config.NativeCurrency
	}
	return network, nil
}
