package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ResetSecretBytes is the amount of randomness in a password-reset secret (256 bits).
const ResetSecretBytes = 32

// NewResetToken returns a raw password-reset token: a hex-encoded random secret
// followed by the owning user's id.
func NewResetToken(userID int64) (string, error) {
	buf := make([]byte, ResetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating reset secret: %w", err)
	}
	return hex.EncodeToString(buf) + strconv.FormatInt(userID, 10), nil
}

// HashResetToken returns the deterministic lookup hash stored for a raw reset token.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
