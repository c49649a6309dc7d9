package submission

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for submission data operations.
type Repository interface {
	// Create stores a new pending submission, generating an ID.
	Create(s *Submission) error

	// GetByID retrieves a submission by ID.
	GetByID(id string) (*Submission, error)

	// ListByStatus retrieves submissions in the given state, oldest first
	// so reviewers work through the queue in arrival order.
	ListByStatus(status Status) ([]*Submission, error)

	// ListByUser retrieves a user's submissions, newest first.
	ListByUser(submitterID string) ([]*Submission, error)

	// Approve marks a pending submission approved. Returns ErrNotPending
	// if the submission has already been reviewed.
	Approve(id, reviewerID string) (*Submission, error)

	// Reject marks a pending submission rejected with a note. Returns
	// ErrNotPending if the submission has already been reviewed.
	Reject(id, reviewerID, note string) (*Submission, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryRepository struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
}

// NewInMemoryRepository creates a new in-memory submission repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{submissions: make(map[string]*Submission)}
}

func copySubmission(s *Submission) *Submission {
	submissionCopy := *s
	if s.ReviewedAt != nil {
		t := *s.ReviewedAt
		submissionCopy.ReviewedAt = &t
	}
	if s.Venue.MusicGenres != nil {
		submissionCopy.Venue.MusicGenres = append(submissionCopy.Venue.MusicGenres[:0:0], s.Venue.MusicGenres...)
	}
	if s.Venue.LiveMusicDays != nil {
		submissionCopy.Venue.LiveMusicDays = append(submissionCopy.Venue.LiveMusicDays[:0:0], s.Venue.LiveMusicDays...)
	}
	return &submissionCopy
}

// Create stores a new pending submission, generating an ID.
func (r *InMemoryRepository) Create(s *Submission) error {
	if err := s.Venue.ValidateAttributes(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.Status = StatusPending
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	r.submissions[s.ID] = copySubmission(s)
	return nil
}

// GetByID retrieves a submission by ID.
func (r *InMemoryRepository) GetByID(id string) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return copySubmission(s), nil
}

// ListByStatus retrieves submissions in the given state, oldest first.
func (r *InMemoryRepository) ListByStatus(status Status) ([]*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Submission
	for _, s := range r.submissions {
		if s.Status == status {
			result = append(result, copySubmission(s))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListByUser retrieves a user's submissions, newest first.
func (r *InMemoryRepository) ListByUser(submitterID string) ([]*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Submission
	for _, s := range r.submissions {
		if s.SubmitterID == submitterID {
			result = append(result, copySubmission(s))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// review transitions a pending submission to a terminal state.
func (r *InMemoryRepository) review(id, reviewerID, note string, status Status) (*Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	if s.Status != StatusPending {
		return nil, ErrNotPending
	}

	now := time.Now()
	s.Status = status
	s.ReviewerID = reviewerID
	s.ReviewNote = note
	s.ReviewedAt = &now
	return copySubmission(s), nil
}

// Approve marks a pending submission approved.
func (r *InMemoryRepository) Approve(id, reviewerID string) (*Submission, error) {
	return r.review(id, reviewerID, "", StatusApproved)
}

// Reject marks a pending submission rejected with a note.
func (r *InMemoryRepository) Reject(id, reviewerID, note string) (*Submission, error) {
	return r.review(id, reviewerID, note, StatusRejected)
}
