package strength

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var secretProfile = profile{
	subject:           "JWT secret",
	minLength:         32,
	recommendedLength: 64,
	maxLength:         512,
	lengthCap:         64,
	bonusAt:           [2]int{48, 64},
	tiers:             [3]int{32, 48, 64},
	runLength:         4,
	common: setOf(
		"secret", "changeme", "change-me-in-production", "your-secret-key",
		"jwt-secret", "supersecret", "mysecret", "default",
	),
	weakParts: []string{
		"secret", "password", "changeme", "change-me", "default", "jwt",
		"token", "example", "test", "admin", "qwerty", "letmein",
	},
}

// JWTSecret checks a token signing secret.
func JWTSecret(secret string) Result {
	return secretProfile.assess(secret, nil)
}

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!#%&*+-.:=?@^_~"

// GenerateSecret returns a random secret of length characters that passes JWTSecret.
func GenerateSecret(length int) (string, error) {
	if length < secretProfile.minLength || length > secretProfile.maxLength {
		return "", fmt.Errorf("secret length must be between %d and %d", secretProfile.minLength, secretProfile.maxLength)
	}
	max := big.NewInt(int64(len(secretAlphabet)))
	for attempt := 0; attempt < 100; attempt++ {
		buf := make([]byte, length)
		for i := range buf {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("generate secret: %w", err)
			}
			buf[i] = secretAlphabet[n.Int64()]
		}
		if JWTSecret(string(buf)).Valid {
			return string(buf), nil
		}
	}
	return "", fmt.Errorf("generate secret: no valid candidate")
}
