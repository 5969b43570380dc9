// Package store is the Postgres repository behind the website and admin API.
package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	// ErrBadReference is returned when a foreign key (region_id, location_id) points nowhere.
	ErrBadReference = errors.New("referenced record does not exist")
	// ErrReservedKey is returned when a caller tries to write the synthetic ALL stats row.
	ErrReservedKey = errors.New("region key is reserved")
)

type Store struct {
	db *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrBadReference
		}
	}
	return err
}

// wrap classifies err and annotates anything that is not a sentinel with op.
func wrap(op string, err error) error {
	c := classify(err)
	if errors.Is(c, ErrNotFound) || errors.Is(c, ErrConflict) || errors.Is(c, ErrBadReference) {
		return c
	}
	return fmt.Errorf("%s: %w", op, err)
}
