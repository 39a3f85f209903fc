package submit

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store records receipts keyed by case-insensitive username.
type Store interface {
	// Save stores r. It returns ErrUsernameTaken if the username exists.
	Save(ctx context.Context, r Receipt) error
	Exists(ctx context.Context, username string) (bool, error)
	// List returns all receipts ordered by creation time.
	List(ctx context.Context) ([]Receipt, error)
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	receipts map[string]Receipt
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{receipts: make(map[string]Receipt)}
}

func (m *MemoryStore) Save(_ context.Context, r Receipt) error {
	key := usernameKey(r.Username)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.receipts[key]; ok {
		return ErrUsernameTaken
	}
	m.receipts[key] = r
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.receipts[usernameKey(username)]
	return ok, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Receipt, error) {
	m.mu.RLock()
	out := make([]Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sortReceipts(out)
	return out, nil
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func sortReceipts(rs []Receipt) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].Username < rs[j].Username
	})
}
