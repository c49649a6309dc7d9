package venue

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for venue operations.
var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrVenueDeleted  = errors.New("venue has been deleted")
)

// Filter narrows a venue listing. Zero values mean "no constraint";
// boolean feature filters use pointers so "must be false" is expressible.
type Filter struct {
	Neighborhood   string
	Genre          MusicGenre
	CapacitySize   CapacitySize
	CoverFrequency CoverFrequency
	HasPatio       *bool
	HasRooftop     *bool
	HasDancefloor  *bool
	ServesFood     *bool

	// Query is matched case-insensitively against name and description.
	Query string
}

// Repository defines the interface for venue data operations.
type Repository interface {
	// Create inserts a new venue, generating an ID if one is not set.
	Create(v *Venue) error

	// Update modifies an existing venue.
	Update(v *Venue) error

	// Delete soft-deletes a venue by setting its deleted_at timestamp.
	Delete(id string) error

	// GetByID retrieves a venue by ID, excluding soft-deleted venues.
	GetByID(id string) (*Venue, error)

	// List retrieves venues matching the filter, ordered by name, with
	// offset/limit pagination. Soft-deleted venues are excluded.
	List(filter Filter, limit, offset int) ([]*Venue, error)

	// ListCandidates retrieves all venues except those whose IDs appear in
	// exclude. Used to build the candidate set for recommendations: the
	// caller passes the IDs the user has already favorited or visited.
	ListCandidates(exclude []string) ([]*Venue, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	venues map[string]*Venue
}

// NewInMemoryRepository creates a new in-memory venue repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		venues: make(map[string]*Venue),
	}
}

// copyVenue returns a deep copy so callers cannot mutate stored state.
func copyVenue(v *Venue) *Venue {
	venueCopy := *v
	if v.MusicGenres != nil {
		venueCopy.MusicGenres = append([]MusicGenre(nil), v.MusicGenres...)
	}
	if v.LiveMusicDays != nil {
		venueCopy.LiveMusicDays = append([]string(nil), v.LiveMusicDays...)
	}
	if v.DeletedAt != nil {
		t := *v.DeletedAt
		venueCopy.DeletedAt = &t
	}
	return &venueCopy
}

// Create inserts a new venue, generating an ID if one is not set.
func (r *InMemoryRepository) Create(v *Venue) error {
	if err := v.ValidateAttributes(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	r.venues[v.ID] = copyVenue(v)
	return nil
}

// Update modifies an existing venue.
func (r *InMemoryRepository) Update(v *Venue) error {
	if err := v.ValidateAttributes(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.venues[v.ID]
	if !ok {
		return ErrVenueNotFound
	}
	if existing.DeletedAt != nil {
		return ErrVenueDeleted
	}

	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now()
	r.venues[v.ID] = copyVenue(v)
	return nil
}

// Delete soft-deletes a venue by setting its deleted_at timestamp.
func (r *InMemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.venues[id]
	if !ok {
		return ErrVenueNotFound
	}
	if existing.DeletedAt != nil {
		return ErrVenueDeleted
	}

	now := time.Now()
	existing.DeletedAt = &now
	existing.UpdatedAt = now
	return nil
}

// GetByID retrieves a venue by ID, excluding soft-deleted venues.
func (r *InMemoryRepository) GetByID(id string) (*Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.venues[id]
	if !ok || v.DeletedAt != nil {
		return nil, ErrVenueNotFound
	}
	return copyVenue(v), nil
}

// matches reports whether the venue satisfies every constraint in the filter.
func matches(v *Venue, f Filter) bool {
	if f.Neighborhood != "" && v.Neighborhood != f.Neighborhood {
		return false
	}
	if f.Genre != "" && !v.HasGenre(f.Genre) {
		return false
	}
	if f.CapacitySize != "" && v.CapacitySize != f.CapacitySize {
		return false
	}
	if f.CoverFrequency != "" && v.CoverFrequency != f.CoverFrequency {
		return false
	}
	if f.HasPatio != nil && v.HasPatio != *f.HasPatio {
		return false
	}
	if f.HasRooftop != nil && v.HasRooftop != *f.HasRooftop {
		return false
	}
	if f.HasDancefloor != nil && v.HasDancefloor != *f.HasDancefloor {
		return false
	}
	if f.ServesFood != nil && v.ServesFood != *f.ServesFood {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(v.Name), q) &&
			!strings.Contains(strings.ToLower(v.Description), q) {
			return false
		}
	}
	return true
}

// List retrieves venues matching the filter, ordered by name.
func (r *InMemoryRepository) List(filter Filter, limit, offset int) ([]*Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Venue
	for _, v := range r.venues {
		if v.DeletedAt != nil {
			continue
		}
		if matches(v, filter) {
			result = append(result, copyVenue(v))
		}
	}

	// Name then ID tie-break for deterministic pagination
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})

	if offset > len(result) {
		return []*Venue{}, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListCandidates retrieves all venues except those whose IDs appear in exclude.
func (r *InMemoryRepository) ListCandidates(exclude []string) ([]*Venue, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Venue
	for _, v := range r.venues {
		if v.DeletedAt != nil || excluded[v.ID] {
			continue
		}
		result = append(result, copyVenue(v))
	}

	// Stable candidate order so recommendation tie-breaks are deterministic
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}
