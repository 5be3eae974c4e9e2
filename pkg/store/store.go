package store

import (
	"context"
	"errors"

	"arcanearchives/pkg/domain"
)

// ErrBookIDAssigned is returned when CreateBook receives a book that already has an ID.
var ErrBookIDAssigned = errors.New("book id is assigned by the store")

// Store defines persistence operations for book records.
type Store interface {
	// CreateBook persists a new record and returns it with ID and UploadDate populated.
	CreateBook(ctx context.Context, b domain.Book) (domain.Book, error)
	// ListBooks returns every record, most recently uploaded first.
	ListBooks(ctx context.Context) ([]domain.Book, error)
	GetBook(ctx context.Context, id string) (domain.Book, bool, error)
	DeleteBook(ctx context.Context, id string) error
}
