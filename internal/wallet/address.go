// Package wallet validates and normalizes Ethereum wallet addresses.
// Addresses are stored in EIP-55 checksummed form so case-insensitive
// duplicates collapse to one identity.
package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Normalize validates addr as a 20-byte hex Ethereum address and returns
// its EIP-55 checksummed form. Input with mixed case must already carry a
// valid checksum; all-lower and all-upper inputs are accepted as
// checksum-agnostic.
func Normalize(addr string) (string, error) {
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return "", fmt.Errorf("address %q missing 0x prefix", addr)
	}
	hexPart := addr[2:]
	if len(hexPart) != 40 {
		return "", fmt.Errorf("address must be 40 hex chars, got %d", len(hexPart))
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return "", fmt.Errorf("address is not valid hex: %w", err)
	}

	checksummed := checksum(strings.ToLower(hexPart))

	if hasMixedCase(hexPart) && hexPart != checksummed {
		return "", fmt.Errorf("address checksum mismatch")
	}

	return "0x" + checksummed, nil
}

// Valid reports whether addr parses as an Ethereum address with a
// correct or absent checksum.
func Valid(addr string) bool {
	_, err := Normalize(addr)
	return err == nil
}

// checksum implements EIP-55: hash the lowercase hex address with
// Keccak-256 and uppercase each letter whose corresponding hash nibble
// is 8 or above.
func checksum(lowerHex string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lowerHex))
	digest := h.Sum(nil)

	out := []byte(lowerHex)
	for i, ch := range out {
		if ch < 'a' || ch > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = ch - 'a' + 'A'
		}
	}
	return string(out)
}

func hasMixedCase(s string) bool {
	var hasLower, hasUpper bool
	for _, ch := range s {
		switch {
		case ch >= 'a' && ch <= 'f':
			hasLower = true
		case ch >= 'A' && ch <= 'F':
			hasUpper = true
		}
	}
	return hasLower && hasUpper
}
