package provider

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/ethconnect/internal/testutil"
)

func newTestKeyStore(t *testing.T) *keystore.KeyStore {
	t.Helper()
	return keystore.NewKeyStore(testutil.TempDir(t), keystore.LightScryptN, keystore.LightScryptP)
}

func newTestKeystoreProvider(t *testing.T, ks *keystore.KeyStore, upstream Injected) *Keystore {
	t.Helper()
	k := NewKeystore(ks, upstream)
	t.Cleanup(k.Close)
	return k
}

func decodeAccounts(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var out []string
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestKeystore_Accounts(t *testing.T) {
	ctx := context.Background()

	t.Run("eth_accounts is empty until authorized", func(t *testing.T) {
		ks := newTestKeyStore(t)
		_, err := ks.NewAccount("pass")
		require.NoError(t, err)
		k := newTestKeystoreProvider(t, ks, nil)

		raw, err := k.Request(ctx, "eth_accounts")
		require.NoError(t, err)
		assert.Empty(t, decodeAccounts(t, raw))
	})

	t.Run("eth_requestAccounts exposes the first account", func(t *testing.T) {
		ks := newTestKeyStore(t)
		acc, err := ks.NewAccount("pass")
		require.NoError(t, err)
		k := newTestKeystoreProvider(t, ks, nil)

		raw, err := k.Request(ctx, "eth_requestAccounts")
		require.NoError(t, err)
		assert.Equal(t, []string{acc.Address.Hex()}, decodeAccounts(t, raw))

		raw, err = k.Request(ctx, "eth_accounts")
		require.NoError(t, err)
		assert.Equal(t, []string{acc.Address.Hex()}, decodeAccounts(t, raw))

		selected, ok := k.Selected()
		assert.True(t, ok)
		assert.Equal(t, acc.Address, selected)
	})

	t.Run("eth_requestAccounts fails on empty keystore", func(t *testing.T) {
		k := newTestKeystoreProvider(t, newTestKeyStore(t), nil)

		_, err := k.Request(ctx, "eth_requestAccounts")
		assert.ErrorIs(t, err, ErrNoAccounts)
	})
}

func TestKeystore_Select(t *testing.T) {
	t.Run("emits accountsChanged on switch", func(t *testing.T) {
		ks := newTestKeyStore(t)
		acc1, err := ks.NewAccount("pass")
		require.NoError(t, err)
		acc2, err := ks.NewAccount("pass")
		require.NoError(t, err)
		k := newTestKeystoreProvider(t, ks, nil)

		rec := &recorder{}
		k.On(EventAccountsChanged, rec.listener())

		require.NoError(t, k.Select(acc1.Address))
		require.NoError(t, k.Select(acc1.Address))
		require.NoError(t, k.Select(acc2.Address))

		assert.Equal(t, []any{
			[]string{acc1.Address.Hex()},
			[]string{acc2.Address.Hex()},
		}, rec.all())
	})

	t.Run("rejects unknown address", func(t *testing.T) {
		k := newTestKeystoreProvider(t, newTestKeyStore(t), nil)
		err := k.Select(common.HexToAddress("0x1234567890123456789012345678901234567890"))
		assert.ErrorIs(t, err, ErrUnknownAccount)
	})

	t.Run("lists keystore accounts", func(t *testing.T) {
		ks := newTestKeyStore(t)
		acc, err := ks.NewAccount("pass")
		require.NoError(t, err)
		k := newTestKeystoreProvider(t, ks, nil)

		assert.Equal(t, []common.Address{acc.Address}, k.Accounts())
	})
}

func TestKeystore_Revoke(t *testing.T) {
	ks := newTestKeyStore(t)
	acc, err := ks.NewAccount("pass")
	require.NoError(t, err)
	k := newTestKeystoreProvider(t, ks, nil)

	rec := &recorder{}
	k.On(EventAccountsChanged, rec.listener())

	k.Revoke()
	assert.Empty(t, rec.all(), "revoking with nothing exposed emits nothing")

	require.NoError(t, k.Select(acc.Address))
	k.Revoke()

	payloads := rec.all()
	require.Len(t, payloads, 2)
	assert.Equal(t, []string{}, payloads[1])

	_, ok := k.Selected()
	assert.False(t, ok)
}

func TestKeystore_Upstream(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards other methods", func(t *testing.T) {
		api := newFakeEthAPI()
		api.balances[testAddr1] = big.NewInt(42)
		node := newInProcNode(t, api)
		k := newTestKeystoreProvider(t, newTestKeyStore(t), node)

		raw, err := k.Request(ctx, "eth_getBalance", testAddr1.Hex(), "latest")
		require.NoError(t, err)
		assert.JSONEq(t, `"0x2a"`, string(raw))
	})

	t.Run("fails without upstream", func(t *testing.T) {
		k := newTestKeystoreProvider(t, newTestKeyStore(t), nil)
		_, err := k.Request(ctx, "eth_chainId")
		assert.ErrorIs(t, err, ErrNoUpstream)
	})

	t.Run("re-emits upstream chainChanged until closed", func(t *testing.T) {
		api := newFakeEthAPI()
		node := newInProcNode(t, api)
		k := NewKeystore(newTestKeyStore(t), node)

		rec := &recorder{}
		k.On(EventChainChanged, rec.listener())

		node.Emit(EventChainChanged, "0x5")
		assert.Equal(t, []any{"0x5"}, rec.all())

		k.Close()
		assert.Equal(t, 0, node.ListenerCount(EventChainChanged))
		node.Emit(EventChainChanged, "0x6")
		assert.Len(t, rec.all(), 1)
	})
}
