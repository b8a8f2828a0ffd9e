package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"io.winapps.sitefollowup/internal/errs"
	namemodels "io.winapps.sitefollowup/internal/models/name"
)

// ListNames returns the lookup list sorted by display string.
func (s *Store) ListNames(ctx context.Context) ([]namemodels.Name, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM names ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []namemodels.Name
	for rows.Next() {
		var n namemodels.Name
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// CreateName inserts a new lookup row. Duplicates surface as a
// ConflictError via the unique constraint.
func (s *Store) CreateName(ctx context.Context, name string) (*namemodels.Name, error) {
	var n namemodels.Name
	err := s.pool.QueryRow(ctx,
		`INSERT INTO names (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&n.ID, &n.Name)
	if isUniqueViolation(err) {
		return nil, &errs.ConflictError{Msg: "name already exists"}
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateName renames a lookup row.
func (s *Store) UpdateName(ctx context.Context, id int64, name string) (*namemodels.Name, error) {
	var n namemodels.Name
	err := s.pool.QueryRow(ctx,
		`UPDATE names SET name = $1 WHERE id = $2 RETURNING id, name`, name, id,
	).Scan(&n.ID, &n.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &errs.NotFoundError{Kind: "name", ID: strconv.FormatInt(id, 10)}
	}
	if isUniqueViolation(err) {
		return nil, &errs.ConflictError{Msg: "name already exists"}
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteName removes a lookup row.
func (s *Store) DeleteName(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM names WHERE id = $1`, id)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
