package crypto

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateSessionToken returns a random version 4 UUID string.
// uuid.NewRandom reads from crypto/rand.
func GenerateSessionToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return id.String(), nil
}
