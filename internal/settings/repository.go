package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/store"
)

const storeKey = "settings"

// Repository reads and writes the settings record. Update holds a lock for the
// whole read-modify-write so concurrent writers cannot overwrite each other.
type Repository struct {
	store store.Store
	mu    sync.Mutex
}

// NewRepository creates a repository storing the record under "settings" in s.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Load returns the stored settings, falling back to Defaults.
func (r *Repository) Load(ctx context.Context) (Settings, error) {
	s := Defaults()
	if _, err := r.store.Get(ctx, storeKey, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if s.Limits == nil {
		s.Limits = map[domain.Domain]int64{}
	}
	return s, nil
}

// Update applies fn to the current settings and persists the result when fn
// reports a change.
func (r *Repository) Update(ctx context.Context, fn func(s *Settings) (bool, error)) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	changed, err := fn(&s)
	if err != nil {
		return Settings{}, err
	}
	if changed {
		if err := r.store.Set(ctx, storeKey, s); err != nil {
			return Settings{}, fmt.Errorf("failed to save settings: %w", err)
		}
	}
	return s, nil
}

// Reset removes the stored record so the next Load yields Defaults.
func (r *Repository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Delete(ctx, storeKey)
}
