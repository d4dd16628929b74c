package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidChecksum = errors.New("bad address checksum")
)

// GetAddress validates candidate and returns its EIP-55 checksummed form.
// The 0x prefix is optional but must be lowercase. All-lowercase and all-uppercase hex is accepted
// as unchecksummed input; mixed case must match the checksum exactly.
func GetAddress(candidate string) (string, error) {
	if strings.HasPrefix(candidate, "0X") || !common.IsHexAddress(candidate) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, candidate)
	}

	checksummed := common.HexToAddress(candidate).Hex()

	body := strings.TrimPrefix(candidate, "0x")
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if body != checksummed[2:] {
			return "", fmt.Errorf("%w: %q", ErrInvalidChecksum, candidate)
		}
	}

	return checksummed, nil
}

// SameAddress reports whether two address strings refer to the same account,
// ignoring case. Malformed input never matches.
func SameAddress(a, b string) bool {
	na, err := GetAddress(strings.ToLower(a))
	if err != nil {
		return false
	}
	nb, err := GetAddress(strings.ToLower(b))
	if err != nil {
		return false
	}
	return na == nb
}
