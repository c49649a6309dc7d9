package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Get retrieves an idempotency key by its key value.
// Returns ErrKeyNotFound if the key doesn't exist.
func (r *PostgresRepository) Get(key string) (*IdempotencyKey, error) {
	query := `
		SELECT key, method, route, status, response_hash, response_body,
			response_status_code, created_at
		FROM idempotency_keys
		WHERE key = $1
	`
	var record IdempotencyKey
	var responseHash, responseBody sql.NullString
	var responseStatusCode sql.NullInt64

	err := r.db.QueryRowContext(context.Background(), query, key).Scan(
		&record.Key, &record.Method, &record.Route, &record.Status,
		&responseHash, &responseBody, &responseStatusCode, &record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	record.ResponseHash = responseHash.String
	record.ResponseBody = responseBody.String
	record.ResponseStatusCode = int(responseStatusCode.Int64)
	return &record, nil
}

// Store saves a new idempotency key.
// Returns ErrKeyExists if the key already exists.
func (r *PostgresRepository) Store(record *IdempotencyKey) error {
	if err := ValidateKey(record.Key); err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO idempotency_keys (key, method, route, status,
			response_hash, response_body, response_status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(context.Background(), query,
		record.Key, record.Method, record.Route, record.Status,
		record.ResponseHash, record.ResponseBody, record.ResponseStatusCode,
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrKeyExists
		}
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}

// DeleteOlderThan removes idempotency keys older than the specified duration.
// Returns the number of keys deleted.
func (r *PostgresRepository) DeleteOlderThan(duration time.Duration) (int64, error) {
	cutoff := time.Now().Add(-duration)

	result, err := r.db.ExecContext(context.Background(),
		`DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old idempotency keys: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted idempotency keys: %w", err)
	}
	return deleted, nil
}
