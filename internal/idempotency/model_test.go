package idempotency

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"client-generated uuid", "9b2f1c64-3a7d-4e18-b2c5-6f0a9d8e7c41", nil},
		{"short token", "visit-retry-1", nil},
		{"exactly max length", strings.Repeat("k", MaxKeyLength), nil},
		{"empty", "", ErrInvalidKey},
		{"over max length", strings.Repeat("k", MaxKeyLength+1), ErrKeyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestComputeResponseHash(t *testing.T) {
	body := `{"id":"visit-1","venue_id":"v-1","experience_rating":8}`

	first := ComputeResponseHash(body)
	second := ComputeResponseHash(body)
	if first != second {
		t.Error("hash must be deterministic for the same body")
	}
	if len(first) != 64 {
		t.Errorf("hash length = %d, want 64 hex characters", len(first))
	}
	if other := ComputeResponseHash(body + " "); other == first {
		t.Error("distinct bodies must hash differently")
	}
}
