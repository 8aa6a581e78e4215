package crypto

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestNewResetToken(t *testing.T) {
	raw, err := NewResetToken(1234)
	if err != nil {
		t.Fatalf("NewResetToken() unexpected error: %v", err)
	}

	if !strings.HasSuffix(raw, "1234") {
		t.Errorf("NewResetToken() = %q, want user id suffix", raw)
	}
	secret := strings.TrimSuffix(raw, "1234")
	if len(secret) != ResetSecretBytes*2 {
		t.Errorf("secret length = %d, want %d", len(secret), ResetSecretBytes*2)
	}
	if _, err := hex.DecodeString(secret); err != nil {
		t.Errorf("secret is not hex: %v", err)
	}
}

func TestNewResetTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, err := NewResetToken(1)
		if err != nil {
			t.Fatalf("NewResetToken() unexpected error: %v", err)
		}
		if seen[raw] {
			t.Fatalf("NewResetToken() produced duplicate token %q", raw)
		}
		seen[raw] = true
	}
}

func TestHashResetToken(t *testing.T) {
	h1 := HashResetToken("abc1")
	h2 := HashResetToken("abc1")
	h3 := HashResetToken("abc2")

	if h1 != h2 {
		t.Error("HashResetToken() must be deterministic")
	}
	if h1 == h3 {
		t.Error("HashResetToken() returned the same hash for different input")
	}
	if len(h1) != 64 {
		t.Errorf("HashResetToken() length = %d, want 64", len(h1))
	}
	if h1 == "abc1" {
		t.Error("HashResetToken() must not return the raw value")
	}
}
