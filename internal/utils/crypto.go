// internal/utils/crypto.go
package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// FileChecksum is the hex blake2b-256 digest stored next to every upload.
func FileChecksum(fileData []byte) string {
	sum := blake2b.Sum256(fileData)
	return hex.EncodeToString(sum[:])
}

func ValidateFileChecksum(fileData []byte, expected string) bool {
	return FileChecksum(fileData) == expected
}
