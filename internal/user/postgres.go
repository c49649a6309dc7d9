package user

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lastcall-app/lastcall/internal/venue"
)

// PostgresProfileRepository implements ProfileRepository using PostgreSQL.
type PostgresProfileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository.
func NewPostgresProfileRepository(db *sql.DB, logger *slog.Logger) *PostgresProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileRepository{db: db, logger: logger}
}

// Upsert inserts or replaces a profile keyed by user ID.
func (r *PostgresProfileRepository) Upsert(p *Profile) error {
	genres := make([]string, len(p.PreferredGenres))
	for i, g := range p.PreferredGenres {
		genres[i] = string(g)
	}

	query := `
		INSERT INTO user_profiles (user_id, display_name, preferred_genres,
			first_neighborhood, second_neighborhood, third_neighborhood,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			preferred_genres = EXCLUDED.preferred_genres,
			first_neighborhood = EXCLUDED.first_neighborhood,
			second_neighborhood = EXCLUDED.second_neighborhood,
			third_neighborhood = EXCLUDED.third_neighborhood,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(context.Background(), query,
		p.UserID, p.DisplayName, pq.Array(genres),
		p.FirstNeighborhood, p.SecondNeighborhood, p.ThirdNeighborhood,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves a profile. Returns ErrProfileNotFound if absent.
func (r *PostgresProfileRepository) GetByUserID(userID string) (*Profile, error) {
	query := `
		SELECT user_id, display_name, preferred_genres,
			first_neighborhood, second_neighborhood, third_neighborhood,
			created_at, updated_at
		FROM user_profiles WHERE user_id = $1
	`
	var p Profile
	var displayName, first, second, third sql.NullString
	var genres []string
	err := r.db.QueryRowContext(context.Background(), query, userID).Scan(
		&p.UserID, &displayName, pq.Array(&genres),
		&first, &second, &third, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.DisplayName = displayName.String
	p.FirstNeighborhood = first.String
	p.SecondNeighborhood = second.String
	p.ThirdNeighborhood = third.String
	for _, g := range genres {
		p.PreferredGenres = append(p.PreferredGenres, venue.MusicGenre(g))
	}
	return &p, nil
}

// PostgresFavoriteRepository implements FavoriteRepository using PostgreSQL.
type PostgresFavoriteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresFavoriteRepository creates a new PostgresFavoriteRepository.
func NewPostgresFavoriteRepository(db *sql.DB, logger *slog.Logger) *PostgresFavoriteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFavoriteRepository{db: db, logger: logger}
}

// Add favorites a venue for a user.
func (r *PostgresFavoriteRepository) Add(userID, venueID string) error {
	query := `
		INSERT INTO favorites (user_id, venue_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, venue_id) DO NOTHING
	`
	result, err := r.db.ExecContext(context.Background(), query, userID, venueID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check favorite result: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyFavorited
	}
	return nil
}

// Remove unfavorites a venue.
func (r *PostgresFavoriteRepository) Remove(userID, venueID string) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND venue_id = $2`
	result, err := r.db.ExecContext(context.Background(), query, userID, venueID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check remove result: %w", err)
	}
	if rows == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// ListByUser returns the user's favorites ordered by creation time descending.
func (r *PostgresFavoriteRepository) ListByUser(userID string) ([]*Favorite, error) {
	query := `
		SELECT user_id, venue_id, created_at FROM favorites
		WHERE user_id = $1 ORDER BY created_at DESC, venue_id
	`
	rows, err := r.db.QueryContext(context.Background(), query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var result []*Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.UserID, &f.VenueID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return result, nil
}

// PostgresVisitRepository implements VisitRepository using PostgreSQL.
type PostgresVisitRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresVisitRepository creates a new PostgresVisitRepository.
func NewPostgresVisitRepository(db *sql.DB, logger *slog.Logger) *PostgresVisitRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVisitRepository{db: db, logger: logger}
}

// Create records a visit, generating an ID.
func (r *PostgresVisitRepository) Create(v *Visit) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now()
	}

	query := `
		INSERT INTO visits (id, user_id, venue_id, experience_rating, notes, visited_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.ExecContext(context.Background(), query,
		v.ID, v.UserID, v.VenueID, v.ExperienceRating, v.Notes, v.VisitedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

// ListByUser returns the user's visits ordered by visit time descending.
func (r *PostgresVisitRepository) ListByUser(userID string) ([]*Visit, error) {
	return r.list(userID, 0)
}

// ListHighRatedByUser returns visits with experience rating >= HighRatedThreshold.
func (r *PostgresVisitRepository) ListHighRatedByUser(userID string) ([]*Visit, error) {
	return r.list(userID, HighRatedThreshold)
}

func (r *PostgresVisitRepository) list(userID string, minRating int) ([]*Visit, error) {
	query := `
		SELECT id, user_id, venue_id, experience_rating, notes, visited_at, created_at
		FROM visits WHERE user_id = $1 AND experience_rating >= $2
		ORDER BY visited_at DESC, id
	`
	rows, err := r.db.QueryContext(context.Background(), query, userID, minRating)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var result []*Visit
	for rows.Next() {
		var v Visit
		var notes sql.NullString
		if err := rows.Scan(&v.ID, &v.UserID, &v.VenueID, &v.ExperienceRating,
			&notes, &v.VisitedAt, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.Notes = notes.String
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return result, nil
}
