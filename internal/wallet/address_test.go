package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Checksummed addresses from the EIP-55 reference vectors.
var eip55Vectors = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestNormalizeLowercase(t *testing.T) {
	for _, want := range eip55Vectors {
		got, err := Normalize(strings.ToLower(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNormalizeUppercase(t *testing.T) {
	for _, want := range eip55Vectors {
		in := "0x" + strings.ToUpper(want[2:])
		got, err := Normalize(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNormalizeValidChecksumPreserved(t *testing.T) {
	for _, want := range eip55Vectors {
		got, err := Normalize(want)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNormalizeBadChecksumRejected(t *testing.T) {
	// Flip the case of one letter in a valid checksummed address.
	addr := "0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	_, err := Normalize(addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum")
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{"no prefix", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"too short", "0x5aAeb6"},
		{"too long", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00"},
		{"not hex", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAzz"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.addr)
			assert.Error(t, err)
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(eip55Vectors[0]))
	assert.True(t, Valid(strings.ToLower(eip55Vectors[0])))
	assert.False(t, Valid("0x123"))
}
