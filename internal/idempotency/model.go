// Package idempotency stores responses to mutating requests so that
// retried requests carrying the same Idempotency-Key header replay the
// original response instead of re-executing.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Key lifecycle states. Only StatusCompleted is written by the middleware
// today; StatusProcessing exists for the in-flight marker and is part of
// the CHECK constraint in the idempotency_keys migration, so keep the two
// in sync.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

var (
	ErrKeyNotFound = errors.New("idempotency key not found")
	ErrKeyExists   = errors.New("idempotency key already exists")
	ErrInvalidKey  = errors.New("invalid idempotency key")
	ErrKeyTooLong  = errors.New("idempotency key exceeds maximum length of 64 characters")
)

// MaxKeyLength bounds client-chosen keys; it matches the column width in
// the idempotency_keys table.
const MaxKeyLength = 64

// IdempotencyKey is one stored key together with the response it caches.
type IdempotencyKey struct {
	Key                string    `json:"key"`
	Method             string    `json:"method"`
	Route              string    `json:"route"`
	CreatedAt          time.Time `json:"created_at"`
	ResponseHash       string    `json:"response_hash"`
	Status             string    `json:"status"`
	ResponseBody       string    `json:"response_body"`
	ResponseStatusCode int       `json:"response_status_code"`
}

// ValidateKey rejects empty keys (ErrInvalidKey) and keys over MaxKeyLength
// (ErrKeyTooLong).
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// ComputeResponseHash returns the hex SHA-256 of the response body, stored
// alongside the body to detect corruption on replay.
func ComputeResponseHash(responseBody string) string {
	hash := sha256.Sum256([]byte(responseBody))
	return hex.EncodeToString(hash[:])
}

// Repository persists idempotency keys. Implementations: InMemoryRepository
// for tests and single-node development, PostgresRepository for production.
type Repository interface {
	// Get returns the stored key, or ErrKeyNotFound.
	Get(key string) (*IdempotencyKey, error)

	// Store saves a new key, or returns ErrKeyExists on duplicate.
	Store(record *IdempotencyKey) error

	// DeleteOlderThan prunes keys past the retention window and reports
	// how many were removed.
	DeleteOlderThan(duration time.Duration) (int64, error)
}
