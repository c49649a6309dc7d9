package submission

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

// PostgresRepository implements Repository using PostgreSQL.
// The proposed venue attributes live in columns on venue_submissions,
// mirroring the venues table so approval can copy them verbatim.
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

const submissionColumns = `id, submitter_id, status, reviewer_id, review_note,
	name, description, neighborhood, music_genres, has_patio, has_rooftop,
	has_dancefloor, serves_food, capacity_size, cover_frequency, cover_amount,
	typical_vibe, live_music_days, created_at, reviewed_at`

// scanSubmission scans one submission row. The row must select
// submissionColumns in order.
func scanSubmission(row interface{ Scan(...any) error }) (*Submission, error) {
	var s Submission
	var genres, liveDays []string
	var reviewerID, reviewNote sql.NullString
	var description, neighborhood, capacitySize, coverFrequency, typicalVibe sql.NullString
	var coverAmount sql.NullFloat64
	var reviewedAt sql.NullTime

	err := row.Scan(
		&s.ID, &s.SubmitterID, &s.Status, &reviewerID, &reviewNote,
		&s.Venue.Name, &description, &neighborhood, pq.Array(&genres), &s.Venue.HasPatio,
		&s.Venue.HasRooftop, &s.Venue.HasDancefloor, &s.Venue.ServesFood,
		&capacitySize, &coverFrequency, &coverAmount,
		&typicalVibe, pq.Array(&liveDays), &s.CreatedAt, &reviewedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ReviewerID = reviewerID.String
	s.ReviewNote = reviewNote.String
	s.Venue.Description = description.String
	s.Venue.Neighborhood = neighborhood.String
	s.Venue.CapacitySize = venue.CapacitySize(capacitySize.String)
	s.Venue.CoverFrequency = venue.CoverFrequency(coverFrequency.String)
	s.Venue.CoverAmount = coverAmount.Float64
	s.Venue.TypicalVibe = typicalVibe.String
	for _, g := range genres {
		s.Venue.MusicGenres = append(s.Venue.MusicGenres, venue.MusicGenre(g))
	}
	s.Venue.LiveMusicDays = liveDays
	if reviewedAt.Valid {
		t := reviewedAt.Time
		s.ReviewedAt = &t
	}
	return &s, nil
}

func genreStrings(genres []venue.MusicGenre) []string {
	out := make([]string, len(genres))
	for i, g := range genres {
		out[i] = string(g)
	}
	return out
}

// Create stores a new pending submission, generating an ID.
func (r *PostgresRepository) Create(s *Submission) error {
	if err := s.Venue.ValidateAttributes(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.Status = StatusPending
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO venue_submissions (id, submitter_id, status,
			name, description, neighborhood, music_genres, has_patio,
			has_rooftop, has_dancefloor, serves_food, capacity_size,
			cover_frequency, cover_amount, typical_vibe, live_music_days,
			created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(context.Background(), query,
		s.ID, s.SubmitterID, string(s.Status),
		s.Venue.Name, s.Venue.Description, s.Venue.Neighborhood,
		pq.Array(genreStrings(s.Venue.MusicGenres)), s.Venue.HasPatio,
		s.Venue.HasRooftop, s.Venue.HasDancefloor, s.Venue.ServesFood,
		string(s.Venue.CapacitySize), string(s.Venue.CoverFrequency),
		s.Venue.CoverAmount, s.Venue.TypicalVibe, pq.Array(s.Venue.LiveMusicDays),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission by ID.
func (r *PostgresRepository) GetByID(id string) (*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM venue_submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(context.Background(), query, id))
	if err == sql.ErrNoRows {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

// ListByStatus retrieves submissions in the given state, oldest first.
func (r *PostgresRepository) ListByStatus(status Status) ([]*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM venue_submissions
		WHERE status = $1 ORDER BY created_at, id`
	return r.list(query, string(status))
}

// ListByUser retrieves a user's submissions, newest first.
func (r *PostgresRepository) ListByUser(submitterID string) ([]*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM venue_submissions
		WHERE submitter_id = $1 ORDER BY created_at DESC, id`
	return r.list(query, submitterID)
}

func (r *PostgresRepository) list(query string, arg any) ([]*Submission, error) {
	rows, err := r.db.QueryContext(context.Background(), query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var result []*Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return result, nil
}

// review transitions a pending submission to a terminal state.
// The WHERE status = 'pending' guard makes the transition atomic; a zero
// row count is disambiguated with a follow-up read.
func (r *PostgresRepository) review(id, reviewerID, note string, status Status) (*Submission, error) {
	query := `
		UPDATE venue_submissions
		SET status = $2, reviewer_id = $3, review_note = $4, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.db.ExecContext(context.Background(), query, id, string(status), reviewerID, note)
	if err != nil {
		return nil, fmt.Errorf("failed to review submission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check review result: %w", err)
	}
	if rows == 0 {
		if _, err := r.GetByID(id); err != nil {
			return nil, err
		}
		return nil, ErrNotPending
	}
	return r.GetByID(id)
}

// Approve marks a pending submission approved.
func (r *PostgresRepository) Approve(id, reviewerID string) (*Submission, error) {
	return r.review(id, reviewerID, "", StatusApproved)
}

// Reject marks a pending submission rejected with a note.
func (r *PostgresRepository) Reject(id, reviewerID, note string) (*Submission, error) {
	return r.review(id, reviewerID, note, StatusRejected)
}
