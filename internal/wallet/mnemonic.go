package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	bip32 "github.com/tyler-smith/go-bip32"
	bip39 "github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic is returned for phrases that fail BIP39 validation
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// NormalizeMnemonic lowercases the phrase and collapses whitespace
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// ValidateMnemonic checks word count, words and checksum. Unknown words are
// reported with the closest word list entry.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)
	words := strings.Fields(normalized)
	if n := len(words); n != 12 && n != 24 {
		return fmt.Errorf("%w: expected 12 or 24 words, got %d", ErrInvalidMnemonic, n)
	}

	for _, w := range words {
		if _, ok := bip39.GetWordIndex(w); !ok {
			return fmt.Errorf("%w: unknown word %q (did you mean %q?)", ErrInvalidMnemonic, w, closestWord(w))
		}
	}

	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return nil
}

func closestWord(word string) string {
	best, bestDist := "", -1
	for _, candidate := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(word, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// DerivationPath returns the BIP44 Ethereum path for account index
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}

// DeriveKey derives the key at DerivationPath(index) from a BIP39 mnemonic
func DeriveKey(mnemonic, passphrase string, index uint32) (*ecdsa.PrivateKey, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed := bip39.NewSeed(NormalizeMnemonic(mnemonic), passphrase)

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		index,
	}
	for _, child := range path {
		key, err = key.NewChildKey(child)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", DerivationPath(index), err)
		}
	}

	return crypto.ToECDSA(common.LeftPadBytes(key.Key, 32))
}

// ImportMnemonic derives the key at index and stores it encrypted with the
// password
func (km *KeystoreManager) ImportMnemonic(mnemonic, password string, index uint32) (accounts.Account, error) {
	privateKey, err := DeriveKey(mnemonic, "", index)
	if err != nil {
		return accounts.Account{}, err
	}
	return km.importECDSA(privateKey, password)
}
