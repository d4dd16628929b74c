package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checksummed = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestGetAddress(t *testing.T) {
	t.Run("accepts checksummed address", func(t *testing.T) {
		got, err := GetAddress(checksummed)
		require.NoError(t, err)
		assert.Equal(t, checksummed, got)
	})

	t.Run("normalizes lowercase", func(t *testing.T) {
		got, err := GetAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
		require.NoError(t, err)
		assert.Equal(t, checksummed, got)
	})

	t.Run("normalizes uppercase", func(t *testing.T) {
		got, err := GetAddress("0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266")
		require.NoError(t, err)
		assert.Equal(t, checksummed, got)
	})

	t.Run("prefix is optional", func(t *testing.T) {
		got, err := GetAddress("f39fd6e51aad88f6f4ce6ab8827279cfffb92266")
		require.NoError(t, err)
		assert.Equal(t, checksummed, got)
	})

	t.Run("rejects bad checksum", func(t *testing.T) {
		_, err := GetAddress("0xF39fd6e51aad88F6F4ce6aB8827279cffFb92266")
		assert.ErrorIs(t, err, ErrInvalidChecksum)
	})

	invalid := map[string]string{
		"empty":         "",
		"too short":     "0x123",
		"too long":      checksummed + "00",
		"non hex":       "0xg39fd6e51aad88f6f4ce6ab8827279cfffb92266",
		"only prefix":   "0x",
		"upper prefix":  "0X70997970c51812dc3a010c7d01b50e0d17dc79c8",
		"ens like name": "vitalik.eth",
	}
	for name, candidate := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := GetAddress(candidate)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress(checksummed, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))
	assert.False(t, SameAddress(checksummed, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.False(t, SameAddress("0x123", "0x123"))
}
