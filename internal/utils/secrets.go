package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// jwtSecretBytes gives a 256-bit HS256 key
const jwtSecretBytes = 32

// GenerateSecret generates a cryptographically secure random secret
func GenerateSecret(bytes int) (string, error) {
	if bytes <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", bytes)
	}
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateJWTSecret generates the shared secret used to verify renter and admin tokens
func GenerateJWTSecret() (string, error) {
	secret, err := GenerateSecret(jwtSecretBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return secret, nil
}
