package idempotency

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)

func visitRecord(key string) *IdempotencyKey {
	body := `{"id":"visit-1","venue_id":"v-1","experience_rating":8}`
	return &IdempotencyKey{
		Key:                key,
		Method:             http.MethodPost,
		Route:              "/visits",
		Status:             StatusCompleted,
		ResponseBody:       body,
		ResponseHash:       ComputeResponseHash(body),
		ResponseStatusCode: http.StatusCreated,
	}
}

func TestInMemoryRepository_StoreAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	record := visitRecord("visit-retry-1")

	if err := repo.Store(record); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := repo.Get("visit-retry-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Route != "/visits" || got.Method != http.MethodPost {
		t.Errorf("got route %s %s, want POST /visits", got.Method, got.Route)
	}
	if got.ResponseBody != record.ResponseBody || got.ResponseStatusCode != http.StatusCreated {
		t.Errorf("cached response mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Store should stamp CreatedAt when unset")
	}
}

func TestInMemoryRepository_GetMissing(t *testing.T) {
	repo := NewInMemoryRepository()

	if _, err := repo.Get("never-stored"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestInMemoryRepository_StoreDuplicate(t *testing.T) {
	repo := NewInMemoryRepository()

	if err := repo.Store(visitRecord("visit-retry-1")); err != nil {
		t.Fatalf("first Store() error = %v", err)
	}
	if err := repo.Store(visitRecord("visit-retry-1")); !errors.Is(err, ErrKeyExists) {
		t.Errorf("second Store() error = %v, want ErrKeyExists", err)
	}
}

func TestInMemoryRepository_StoreValidatesKey(t *testing.T) {
	repo := NewInMemoryRepository()

	if err := repo.Store(visitRecord("")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Store with empty key: error = %v, want ErrInvalidKey", err)
	}
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	if err := repo.Store(visitRecord("visit-retry-1")); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.Get("visit-retry-1")
	got.ResponseBody = "tampered"

	again, _ := repo.Get("visit-retry-1")
	if again.ResponseBody == "tampered" {
		t.Error("mutating a returned record must not affect the stored one")
	}
}

func TestInMemoryRepository_DeleteOlderThan(t *testing.T) {
	repo := NewInMemoryRepository()

	stale := visitRecord("stale")
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := visitRecord("fresh")
	fresh.CreatedAt = time.Now()

	if err := repo.Store(stale); err != nil {
		t.Fatal(err)
	}
	if err := repo.Store(fresh); err != nil {
		t.Fatal(err)
	}

	deleted, err := repo.DeleteOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := repo.Get("stale"); !errors.Is(err, ErrKeyNotFound) {
		t.Error("stale key should have been removed")
	}
	if _, err := repo.Get("fresh"); err != nil {
		t.Errorf("fresh key should survive cleanup: %v", err)
	}
}

func TestInMemoryRepository_ConcurrentStores(t *testing.T) {
	repo := NewInMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = repo.Store(visitRecord(fmt.Sprintf("visit-retry-%d", n)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		if _, err := repo.Get(fmt.Sprintf("visit-retry-%d", i)); err != nil {
			t.Errorf("key %d missing after concurrent stores: %v", i, err)
		}
	}
}
