package setup

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/ethconnect/internal/config"
	"github.com/yolodolo42/ethconnect/internal/testutil"
	"github.com/yolodolo42/ethconnect/internal/wallet"
)

var lightScrypt = wallet.WithScrypt(keystore.LightScryptN, keystore.LightScryptP)

// seedKeystore returns a data dir whose keystore holds the given keys
func seedKeystore(t *testing.T, keys ...string) string {
	t.Helper()
	dir := testutil.TempDir(t)
	km, err := wallet.NewKeystoreManager(dir, lightScrypt)
	require.NoError(t, err)
	for _, key := range keys {
		_, err := km.ImportKey(key, "password1")
		require.NoError(t, err)
	}
	return dir
}

const (
	otherKey     = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	otherAddress = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestDetect(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		status, err := Detect(testutil.TempDir(t), "")
		require.NoError(t, err)
		assert.False(t, status.HasWallet())
		assert.Empty(t, status.Default)
	})

	dir := seedKeystore(t, testKey, otherKey)

	t.Run("lists accounts", func(t *testing.T) {
		status, err := Detect(dir, "")
		require.NoError(t, err)
		assert.True(t, status.HasWallet())
		assert.ElementsMatch(t, []string{testAddress, otherAddress}, status.Accounts)
		assert.Equal(t, status.Accounts[0], status.Default)
	})

	t.Run("resolves preferred case-insensitively", func(t *testing.T) {
		status, err := Detect(dir, "0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
		require.NoError(t, err)
		assert.Equal(t, otherAddress, status.Default)
	})

	t.Run("unknown preferred falls back to first", func(t *testing.T) {
		status, err := Detect(dir, "0x1234567890123456789012345678901234567890")
		require.NoError(t, err)
		assert.Equal(t, status.Accounts[0], status.Default)
	})
}

func TestNeedsSetup(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		dataDir  string
		want     bool
	}{
		{"empty keystore", config.ProviderKeystore, testutil.TempDir(t), true},
		{"node provider", config.ProviderNode, testutil.TempDir(t), false},
		{"keystore with account", config.ProviderKeystore, seedKeystore(t, testKey), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Provider: tt.provider, DataDir: tt.dataDir}
			assert.Equal(t, tt.want, NeedsSetup(cfg))
		})
	}
}
