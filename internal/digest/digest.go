// Package digest computes hex-encoded content digests for lock manifests.
// Both supported algorithms produce 32-byte sums, i.e. 64 lowercase hex chars.
package digest

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	sha256 "github.com/minio/sha256-simd"
	"lukechampine.com/blake3"
)

// Algorithm names a digest function.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// Default is used when no algorithm is configured.
const Default = SHA256

// HexLen is the length of an encoded digest.
const HexLen = 64

// Parse maps a user-supplied name to an Algorithm. Empty selects Default.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return Default, nil
	case SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q (want sha256 or blake3)", name)
	}
}

func (a Algorithm) newHash() hash.Hash {
	if a == BLAKE3 {
		return blake3.New(32, nil)
	}
	return sha256.New()
}

// Sum hashes everything read from r.
func Sum(a Algorithm, r io.Reader) (string, error) {
	h := a.newHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes hashes b.
func Bytes(a Algorithm, b []byte) string {
	h := a.newHash()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// SumFile hashes the file at path.
func SumFile(a Algorithm, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Sum(a, f)
}

// IsHex reports whether s is a well-formed encoded digest.
func IsHex(s string) bool {
	if len(s) != HexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
