package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/yolodolo42/ethconnect/internal/chain"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already in keystore")
	ErrInvalidKey      = errors.New("invalid private key")
)

// KeystoreManager manages the keystore directory whose accounts the keystore
// provider exposes to a session
type KeystoreManager struct {
	ks      *keystore.KeyStore
	dataDir string
}

// Option configures a KeystoreManager
type Option func(*scryptParams)

type scryptParams struct {
	n, p int
}

// WithScrypt overrides the key derivation cost. Only tests should lower it.
func WithScrypt(n, p int) Option {
	return func(sp *scryptParams) {
		sp.n, sp.p = n, p
	}
}

// NewKeystoreManager opens (creating if needed) <dataDir>/keystore
func NewKeystoreManager(dataDir string, opts ...Option) (*KeystoreManager, error) {
	keystoreDir := filepath.Join(dataDir, "keystore")
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	// StandardScryptN and StandardScryptP are secure defaults
	params := scryptParams{n: keystore.StandardScryptN, p: keystore.StandardScryptP}
	for _, opt := range opts {
		opt(&params)
	}

	return &KeystoreManager{
		ks:      keystore.NewKeyStore(keystoreDir, params.n, params.p),
		dataDir: dataDir,
	}, nil
}

// KeyStore returns the underlying go-ethereum keystore
func (km *KeystoreManager) KeyStore() *keystore.KeyStore {
	return km.ks
}

// CreateAccount creates a new account with the given password
func (km *KeystoreManager) CreateAccount(password string) (accounts.Account, error) {
	return km.ks.NewAccount(password)
}

// ImportKey imports a private key and encrypts it with the password
func (km *KeystoreManager) ImportKey(privateKeyHex string, password string) (accounts.Account, error) {
	privateKey, err := parseKey(privateKeyHex)
	if err != nil {
		return accounts.Account{}, err
	}
	return km.importECDSA(privateKey, password)
}

func (km *KeystoreManager) importECDSA(key *ecdsa.PrivateKey, password string) (accounts.Account, error) {
	account, err := km.ks.ImportECDSA(key, password)
	if errors.Is(err, keystore.ErrAccountAlreadyExists) {
		return accounts.Account{}, fmt.Errorf("%w: %s", ErrAccountExists, crypto.PubkeyToAddress(key.PublicKey).Hex())
	}
	return account, err
}

// ValidateKey reports whether privateKeyHex parses as a secp256k1 key
func ValidateKey(privateKeyHex string) error {
	_, err := parseKey(privateKeyHex)
	return err
}

func parseKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return privateKey, nil
}

// ListAccounts returns all accounts in the keystore
func (km *KeystoreManager) ListAccounts() []accounts.Account {
	return km.ks.Accounts()
}

// FindAccount looks up an account by address string
func (km *KeystoreManager) FindAccount(address string) (accounts.Account, error) {
	normalized, err := chain.GetAddress(address)
	if err != nil {
		return accounts.Account{}, err
	}

	target := common.HexToAddress(normalized)
	for _, acc := range km.ks.Accounts() {
		if acc.Address == target {
			return acc, nil
		}
	}
	return accounts.Account{}, ErrAccountNotFound
}
