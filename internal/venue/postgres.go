package venue

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
// Genre and live-music-day sets are stored as text[] columns via pq.Array.
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

const venueColumns = `id, name, description, neighborhood, music_genres,
	service_rating, has_patio, has_rooftop, has_dancefloor, serves_food,
	capacity_size, cover_frequency, cover_amount, typical_vibe,
	live_music_days, created_at, updated_at, deleted_at`

// scanVenue scans one venue row. The row must select venueColumns in order.
func scanVenue(row interface{ Scan(...any) error }) (*Venue, error) {
	var v Venue
	var genres, liveDays []string
	var description, neighborhood, capacitySize, coverFrequency, typicalVibe sql.NullString
	var serviceRating, coverAmount sql.NullFloat64
	var deletedAt sql.NullTime

	err := row.Scan(
		&v.ID, &v.Name, &description, &neighborhood, pq.Array(&genres),
		&serviceRating, &v.HasPatio, &v.HasRooftop, &v.HasDancefloor, &v.ServesFood,
		&capacitySize, &coverFrequency, &coverAmount, &typicalVibe,
		pq.Array(&liveDays), &v.CreatedAt, &v.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Description = description.String
	v.Neighborhood = neighborhood.String
	v.CapacitySize = CapacitySize(capacitySize.String)
	v.CoverFrequency = CoverFrequency(coverFrequency.String)
	v.TypicalVibe = typicalVibe.String
	v.ServiceRating = serviceRating.Float64
	v.CoverAmount = coverAmount.Float64
	for _, g := range genres {
		v.MusicGenres = append(v.MusicGenres, MusicGenre(g))
	}
	v.LiveMusicDays = liveDays
	if deletedAt.Valid {
		t := deletedAt.Time
		v.DeletedAt = &t
	}
	return &v, nil
}

// genreStrings converts the typed genre slice for pq.Array binding.
func genreStrings(genres []MusicGenre) []string {
	out := make([]string, len(genres))
	for i, g := range genres {
		out[i] = string(g)
	}
	return out
}

// Create inserts a new venue, generating an ID if one is not set.
func (r *PostgresRepository) Create(v *Venue) error {
	if err := v.ValidateAttributes(); err != nil {
		return err
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	query := `
		INSERT INTO venues (id, name, description, neighborhood, music_genres,
			service_rating, has_patio, has_rooftop, has_dancefloor, serves_food,
			capacity_size, cover_frequency, cover_amount, typical_vibe,
			live_music_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(context.Background(), query,
		v.ID, v.Name, v.Description, v.Neighborhood, pq.Array(genreStrings(v.MusicGenres)),
		v.ServiceRating, v.HasPatio, v.HasRooftop, v.HasDancefloor, v.ServesFood,
		string(v.CapacitySize), string(v.CoverFrequency), v.CoverAmount, v.TypicalVibe,
		pq.Array(v.LiveMusicDays), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert venue: %w", err)
	}
	return nil
}

// Update modifies an existing venue.
func (r *PostgresRepository) Update(v *Venue) error {
	if err := v.ValidateAttributes(); err != nil {
		return err
	}
	v.UpdatedAt = time.Now()

	query := `
		UPDATE venues SET name = $2, description = $3, neighborhood = $4,
			music_genres = $5, service_rating = $6, has_patio = $7,
			has_rooftop = $8, has_dancefloor = $9, serves_food = $10,
			capacity_size = $11, cover_frequency = $12, cover_amount = $13,
			typical_vibe = $14, live_music_days = $15, updated_at = $16
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(context.Background(), query,
		v.ID, v.Name, v.Description, v.Neighborhood, pq.Array(genreStrings(v.MusicGenres)),
		v.ServiceRating, v.HasPatio, v.HasRooftop, v.HasDancefloor, v.ServesFood,
		string(v.CapacitySize), string(v.CoverFrequency), v.CoverAmount, v.TypicalVibe,
		pq.Array(v.LiveMusicDays), v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrVenueNotFound
	}
	return nil
}

// Delete soft-deletes a venue by setting its deleted_at timestamp.
func (r *PostgresRepository) Delete(id string) error {
	query := `UPDATE venues SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrVenueNotFound
	}
	return nil
}

// GetByID retrieves a venue by ID, excluding soft-deleted venues.
func (r *PostgresRepository) GetByID(id string) (*Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1 AND deleted_at IS NULL`
	v, err := scanVenue(r.db.QueryRowContext(context.Background(), query, id))
	if err == sql.ErrNoRows {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return v, nil
}

// List retrieves venues matching the filter, ordered by name.
func (r *PostgresRepository) List(filter Filter, limit, offset int) ([]*Venue, error) {
	var conditions []string
	var args []any

	conditions = append(conditions, "deleted_at IS NULL")

	arg := func(value any) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Neighborhood != "" {
		conditions = append(conditions, "neighborhood = "+arg(filter.Neighborhood))
	}
	if filter.Genre != "" {
		conditions = append(conditions, arg(string(filter.Genre))+" = ANY(music_genres)")
	}
	if filter.CapacitySize != "" {
		conditions = append(conditions, "capacity_size = "+arg(string(filter.CapacitySize)))
	}
	if filter.CoverFrequency != "" {
		conditions = append(conditions, "cover_frequency = "+arg(string(filter.CoverFrequency)))
	}
	if filter.HasPatio != nil {
		conditions = append(conditions, "has_patio = "+arg(*filter.HasPatio))
	}
	if filter.HasRooftop != nil {
		conditions = append(conditions, "has_rooftop = "+arg(*filter.HasRooftop))
	}
	if filter.HasDancefloor != nil {
		conditions = append(conditions, "has_dancefloor = "+arg(*filter.HasDancefloor))
	}
	if filter.ServesFood != nil {
		conditions = append(conditions, "serves_food = "+arg(*filter.ServesFood))
	}
	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		p := arg(pattern)
		conditions = append(conditions, "(LOWER(name) LIKE "+p+" OR LOWER(description) LIKE "+p+")")
	}

	query := `SELECT ` + venueColumns + ` FROM venues WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY name, id`
	if limit > 0 {
		query += " LIMIT " + arg(limit)
	}
	if offset > 0 {
		query += " OFFSET " + arg(offset)
	}

	rows, err := r.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	var result []*Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venues: %w", err)
	}
	return result, nil
}

// ListCandidates retrieves all venues except those whose IDs appear in exclude.
func (r *PostgresRepository) ListCandidates(exclude []string) ([]*Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues
		WHERE deleted_at IS NULL AND NOT (id = ANY($1))
		ORDER BY name, id`

	rows, err := r.db.QueryContext(context.Background(), query, pq.Array(exclude))
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate venues: %w", err)
	}
	defer rows.Close()

	var result []*Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venues: %w", err)
	}
	return result, nil
}
