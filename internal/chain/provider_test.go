package chain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/ethconnect/internal/provider"
)

// stubInjected answers requests from a fixed table
type stubInjected struct {
	provider.Emitter
	results map[string]string
	errs    map[string]error
	calls   [][]any
}

func (s *stubInjected) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	s.calls = append(s.calls, append([]any{method}, params...))
	if err, ok := s.errs[method]; ok {
		return nil, err
	}
	result, ok := s.results[method]
	if !ok {
		return nil, errors.New("method not found")
	}
	return json.RawMessage(result), nil
}

func TestBrowserProvider_GetSigner(t *testing.T) {
	ctx := context.Background()

	t.Run("returns checksummed first account", func(t *testing.T) {
		stub := &stubInjected{results: map[string]string{
			"eth_requestAccounts": `["0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266","0x70997970c51812dc3a010c7d01b50e0d17dc79c8"]`,
		}}
		p := NewBrowserProvider(stub)

		signer, err := p.GetSigner(ctx)
		require.NoError(t, err)
		addr, err := signer.GetAddress(ctx)
		require.NoError(t, err)
		assert.Equal(t, checksummed, addr)
		assert.Same(t, p, signer.Provider())
	})

	t.Run("empty account list", func(t *testing.T) {
		stub := &stubInjected{results: map[string]string{"eth_requestAccounts": `[]`}}
		_, err := NewBrowserProvider(stub).GetSigner(ctx)
		assert.ErrorIs(t, err, ErrNoSigner)
	})

	t.Run("wallet error is wrapped", func(t *testing.T) {
		stub := &stubInjected{errs: map[string]error{"eth_requestAccounts": provider.ErrNoAccounts}}
		_, err := NewBrowserProvider(stub).GetSigner(ctx)
		assert.ErrorIs(t, err, provider.ErrNoAccounts)
	})

	t.Run("malformed account", func(t *testing.T) {
		stub := &stubInjected{results: map[string]string{"eth_requestAccounts": `["0x123"]`}}
		_, err := NewBrowserProvider(stub).GetSigner(ctx)
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}

func TestBrowserProvider_GetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes hex quantity", func(t *testing.T) {
		stub := &stubInjected{results: map[string]string{"eth_getBalance": `"0xde0b6b3a7640000"`}}
		balance, err := NewBrowserProvider(stub).GetBalance(ctx, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
		require.NoError(t, err)
		assert.Equal(t, "1000000000000000000", balance.String())

		require.Len(t, stub.calls, 1)
		assert.Equal(t, []any{"eth_getBalance", checksummed, "latest"}, stub.calls[0])
	})

	t.Run("rejects invalid address without a request", func(t *testing.T) {
		stub := &stubInjected{}
		_, err := NewBrowserProvider(stub).GetBalance(ctx, "nope")
		assert.ErrorIs(t, err, ErrInvalidAddress)
		assert.Empty(t, stub.calls)
	})

	t.Run("bad payload", func(t *testing.T) {
		stub := &stubInjected{results: map[string]string{"eth_getBalance": `"12"`}}
		_, err := NewBrowserProvider(stub).GetBalance(ctx, checksummed)
		assert.ErrorContains(t, err, "failed to decode balance")
	})
}

func TestBrowserProvider_GetNetwork(t *testing.T) {
	ctx := context.Background()

	t.Run("known chain", func(t *testing.T) {
		stub := &stubInjected{results: map[string]string{"eth_chainId": `"0x89"`}}
		network, err := NewBrowserProvider(stub).GetNetwork(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(137), network.ChainID.Int64())
		assert.Equal(t, "Polygon", network.Name)
		assert.Equal(t, "MATIC", network.Currency)
	})

	t.Run("unknown chain", func(t *testing.T) {
		stub := &stubInjected{results: map[string]string{"eth_chainId": `"0x539"`}}
		network, err := NewBrowserProvider(stub).GetNetwork(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1337), network.ChainID.Int64())
		assert.Equal(t, "unknown", network.Name)
		assert.Equal(t, "ETH", network.Currency)
	})

	t.Run("request error", func(t *testing.T) {
		stub := &stubInjected{errs: map[string]error{"eth_chainId": errors.New("boom")}}
		_, err := NewBrowserProvider(stub).GetNetwork(ctx)
		assert.ErrorContains(t, err, "failed to get chain id: boom")
	})
}
