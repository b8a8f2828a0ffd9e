package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"io.winapps.sitefollowup/internal/errs"
	entrymodels "io.winapps.sitefollowup/internal/models/entry"
)

const entryColumns = `id, name, date, timestamp, latitude, longitude, area_name, photo_reference, extracted_text, created_at`

// InsertEntry persists a new entry row. Entries are never updated in
// place; creation happens only after every photo upload succeeded.
func (s *Store) InsertEntry(ctx context.Context, entry *entrymodels.Entry) error {
	query := `
		INSERT INTO entries (id, name, date, timestamp, latitude, longitude, area_name, photo_reference, extracted_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		entry.ID,
		entry.Name,
		entry.Date,
		entry.Timestamp,
		entry.Latitude,
		entry.Longitude,
		entry.AreaName,
		entry.PhotoRef.Encode(),
		entry.ExtractedText,
		entry.CreatedAt,
	)
	return err
}

// ListEntries returns every entry, newest first.
func (s *Store) ListEntries(ctx context.Context) ([]entrymodels.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListDates returns the distinct dates that have entries, newest first.
func (s *Store) ListDates(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT date FROM entries ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// ListEntriesByDate returns one date's entries ordered by time of day.
func (s *Store) ListEntriesByDate(ctx context.Context, date string) ([]entrymodels.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE date = $1 ORDER BY timestamp ASC`
	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// DeleteEntry removes the row and returns its photo reference so the
// caller can reclaim storage. The row is gone once this returns nil, no
// matter what happens to storage cleanup afterwards.
func (s *Store) DeleteEntry(ctx context.Context, id string) (entrymodels.PhotoRef, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return entrymodels.PhotoRef{}, err
	}
	defer tx.Rollback(ctx)

	var rawRef string
	err = tx.QueryRow(ctx, `SELECT photo_reference FROM entries WHERE id = $1`, id).Scan(&rawRef)
	if errors.Is(err, pgx.ErrNoRows) {
		return entrymodels.PhotoRef{}, &errs.NotFoundError{Kind: "entry", ID: id}
	}
	if err != nil {
		return entrymodels.PhotoRef{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id); err != nil {
		return entrymodels.PhotoRef{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return entrymodels.PhotoRef{}, err
	}
	return entrymodels.ParsePhotoRef(rawRef), nil
}

func scanEntries(rows pgx.Rows) ([]entrymodels.Entry, error) {
	var entries []entrymodels.Entry
	for rows.Next() {
		var e entrymodels.Entry
		var rawRef string
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.Date,
			&e.Timestamp,
			&e.Latitude,
			&e.Longitude,
			&e.AreaName,
			&rawRef,
			&e.ExtractedText,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.PhotoRef = entrymodels.ParsePhotoRef(rawRef)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
