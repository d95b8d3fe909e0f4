package orders

import (
	"crypto/rand"
	"fmt"
)

const (
	publicIDAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	defaultPublicIDLength = 10
	// largest multiple of the alphabet size that fits in a byte
	publicIDByteCeiling = 248
)

// NewPublicID returns a random base62 identifier safe to share with customers.
func NewPublicID(length int) (string, error) {
	if length <= 0 {
		length = defaultPublicIDLength
	}
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= publicIDByteCeiling {
				continue
			}
			out = append(out, publicIDAlphabet[int(b)%len(publicIDAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
