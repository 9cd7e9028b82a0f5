package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Hash returns the hexadecimal SHA-256 digest of the bytes.
func Hash(bytes []byte) string {
	sum := sha256.Sum256(bytes)
	return hex.EncodeToString(sum[:])
}

// HashFromFile streams the file content to determine the hash.
func HashFromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
