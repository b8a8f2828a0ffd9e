// Package repository wraps the PostgreSQL persistence the handlers,
// ingestion pipeline, and report builder depend on.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	entrymodels "io.winapps.sitefollowup/internal/models/entry"
)

// EntryReader is the read surface the report builder needs.
type EntryReader interface {
	ListDates(ctx context.Context) ([]string, error)
	ListEntriesByDate(ctx context.Context, date string) ([]entrymodels.Entry, error)
}

// EntryWriter is the write surface the direct-persist dispatcher needs.
type EntryWriter interface {
	InsertEntry(ctx context.Context, entry *entrymodels.Entry) error
}

// EntryStore is the entry surface the HTTP handlers need.
type EntryStore interface {
	ListEntries(ctx context.Context) ([]entrymodels.Entry, error)
	DeleteEntry(ctx context.Context, id string) (entrymodels.PhotoRef, error)
}

// Store implements both over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a repository over an initialized pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
