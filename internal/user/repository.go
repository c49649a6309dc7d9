package user

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProfileRepository defines the interface for user profile operations.
type ProfileRepository interface {
	// Upsert inserts or replaces a profile keyed by user ID.
	Upsert(p *Profile) error

	// GetByUserID retrieves a profile. Returns ErrProfileNotFound if absent.
	GetByUserID(userID string) (*Profile, error)
}

// FavoriteRepository defines the interface for favorite operations.
type FavoriteRepository interface {
	// Add favorites a venue for a user. Adding twice is ErrAlreadyFavorited.
	Add(userID, venueID string) error

	// Remove unfavorites a venue. Removing an absent favorite is ErrFavoriteNotFound.
	Remove(userID, venueID string) error

	// ListByUser returns the user's favorites ordered by creation time descending.
	ListByUser(userID string) ([]*Favorite, error)
}

// VisitRepository defines the interface for visit log operations.
type VisitRepository interface {
	// Create records a visit, generating an ID. The rating must be 1-10.
	Create(v *Visit) error

	// ListByUser returns the user's visits ordered by visit time descending.
	ListByUser(userID string) ([]*Visit, error)

	// ListHighRatedByUser returns visits with experience rating >= HighRatedThreshold.
	ListHighRatedByUser(userID string) ([]*Visit, error)
}

// InMemoryProfileRepository is an in-memory implementation of ProfileRepository.
// Thread-safe via RWMutex. Used for testing and development.
type InMemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryProfileRepository creates a new in-memory profile repository.
func NewInMemoryProfileRepository() *InMemoryProfileRepository {
	return &InMemoryProfileRepository{profiles: make(map[string]*Profile)}
}

func copyProfile(p *Profile) *Profile {
	profileCopy := *p
	if p.PreferredGenres != nil {
		profileCopy.PreferredGenres = append(profileCopy.PreferredGenres[:0:0], p.PreferredGenres...)
	}
	return &profileCopy
}

// Upsert inserts or replaces a profile keyed by user ID.
func (r *InMemoryProfileRepository) Upsert(p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	r.profiles[p.UserID] = copyProfile(p)
	return nil
}

// GetByUserID retrieves a profile. Returns ErrProfileNotFound if absent.
func (r *InMemoryProfileRepository) GetByUserID(userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return copyProfile(p), nil
}

// InMemoryFavoriteRepository is an in-memory implementation of FavoriteRepository.
// Thread-safe via RWMutex.
type InMemoryFavoriteRepository struct {
	mu        sync.RWMutex
	favorites map[string]map[string]*Favorite // userID -> venueID -> favorite
}

// NewInMemoryFavoriteRepository creates a new in-memory favorite repository.
func NewInMemoryFavoriteRepository() *InMemoryFavoriteRepository {
	return &InMemoryFavoriteRepository{favorites: make(map[string]map[string]*Favorite)}
}

// Add favorites a venue for a user.
func (r *InMemoryFavoriteRepository) Add(userID, venueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byVenue, ok := r.favorites[userID]
	if !ok {
		byVenue = make(map[string]*Favorite)
		r.favorites[userID] = byVenue
	}
	if _, exists := byVenue[venueID]; exists {
		return ErrAlreadyFavorited
	}
	byVenue[venueID] = &Favorite{
		UserID:    userID,
		VenueID:   venueID,
		CreatedAt: time.Now(),
	}
	return nil
}

// Remove unfavorites a venue.
func (r *InMemoryFavoriteRepository) Remove(userID, venueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byVenue, ok := r.favorites[userID]
	if !ok {
		return ErrFavoriteNotFound
	}
	if _, exists := byVenue[venueID]; !exists {
		return ErrFavoriteNotFound
	}
	delete(byVenue, venueID)
	return nil
}

// ListByUser returns the user's favorites ordered by creation time descending.
func (r *InMemoryFavoriteRepository) ListByUser(userID string) ([]*Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Favorite
	for _, f := range r.favorites[userID] {
		favoriteCopy := *f
		result = append(result, &favoriteCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].VenueID < result[j].VenueID
	})
	return result, nil
}

// InMemoryVisitRepository is an in-memory implementation of VisitRepository.
// Thread-safe via RWMutex.
type InMemoryVisitRepository struct {
	mu     sync.RWMutex
	visits map[string]*Visit
}

// NewInMemoryVisitRepository creates a new in-memory visit repository.
func NewInMemoryVisitRepository() *InMemoryVisitRepository {
	return &InMemoryVisitRepository{visits: make(map[string]*Visit)}
}

// Create records a visit, generating an ID.
func (r *InMemoryVisitRepository) Create(v *Visit) error {
	if err := v.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now()
	if v.VisitedAt.IsZero() {
		v.VisitedAt = now
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}

	visitCopy := *v
	r.visits[v.ID] = &visitCopy
	return nil
}

// ListByUser returns the user's visits ordered by visit time descending.
func (r *InMemoryVisitRepository) ListByUser(userID string) ([]*Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Visit
	for _, v := range r.visits {
		if v.UserID != userID {
			continue
		}
		visitCopy := *v
		result = append(result, &visitCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].VisitedAt.Equal(result[j].VisitedAt) {
			return result[i].VisitedAt.After(result[j].VisitedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListHighRatedByUser returns visits with experience rating >= HighRatedThreshold.
func (r *InMemoryVisitRepository) ListHighRatedByUser(userID string) ([]*Visit, error) {
	all, err := r.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	var result []*Visit
	for _, v := range all {
		if v.HighRated() {
			result = append(result, v)
		}
	}
	return result, nil
}
