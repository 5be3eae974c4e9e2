package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"arcanearchives/pkg/domain"
)

// MemoryStore keeps book records in-process. It backs tests and local runs
// started with databaseURL "memory://".
type MemoryStore struct {
	mu    sync.RWMutex
	books map[string]domain.Book
	now   func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books: make(map[string]domain.Book),
		now:   time.Now,
	}
}

// CreateBook stores a new record.
func (m *MemoryStore) CreateBook(_ context.Context, b domain.Book) (domain.Book, error) {
	b, err := prepareBook(b, m.now())
	if err != nil {
		return domain.Book{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
	return b, nil
}

// ListBooks returns books newest first.
func (m *MemoryStore) ListBooks(context.Context) ([]domain.Book, error) {
	m.mu.RLock()
	res := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		res = append(res, b)
	}
	m.mu.RUnlock()
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].UploadDate.Equal(res[j].UploadDate) {
			return res[i].ID < res[j].ID
		}
		return res[i].UploadDate.After(res[j].UploadDate)
	})
	return res, nil
}

// GetBook retrieves a book by ID.
func (m *MemoryStore) GetBook(_ context.Context, id string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

// DeleteBook removes a book.
func (m *MemoryStore) DeleteBook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	return nil
}
