package hash

import (
	"crypto/sha256"
	"fmt"
)

// String returns the hex-encoded sha256 of the input.
func String(input string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(input)))
}

// Bytes returns the hex-encoded sha256 of the input.
func Bytes(input []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(input))
}
