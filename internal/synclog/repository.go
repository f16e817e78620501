package synclog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for sync log storage
type Repository interface {
	Record(ctx context.Context, entry *Entry) error
	ListByEmail(ctx context.Context, email string, limit int) ([]*Entry, error)
}

// InMemoryRepository keeps entries in process memory
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Record stores a copy of entry, assigning ID and CreatedAt.
func (r *InMemoryRepository) Record(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()

	stored := *entry
	r.mu.Lock()
	r.entries = append(r.entries, &stored)
	r.mu.Unlock()
	return nil
}

// ListByEmail returns the newest entries for email first.
func (r *InMemoryRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*Entry, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if strings.EqualFold(r.entries[i].Email, email) {
			e := *r.entries[i]
			out = append(out, &e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
