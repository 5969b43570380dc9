package store

import (
	"context"
	"fmt"
)

const regionColumns = `id, name, slug, color, lat, lng, spbu_count, spbe_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegion(row rowScanner) (Region, error) {
	var r Region
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.Color, &r.Lat, &r.Lng, &r.SPBUCount, &r.SPBECount, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *Store) ListRegions(ctx context.Context) ([]Region, error) {
	rows, err := s.db.Query(ctx, `SELECT `+regionColumns+` FROM regions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	out := []Region{}
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRegion(ctx context.Context, id int64) (Region, error) {
	r, err := scanRegion(s.db.QueryRow(ctx, `SELECT `+regionColumns+` FROM regions WHERE id = $1`, id))
	if err != nil {
		return Region{}, wrap("get region", err)
	}
	return r, nil
}

func (s *Store) CreateRegion(ctx context.Context, in RegionInput) (Region, error) {
	r, err := scanRegion(s.db.QueryRow(ctx, `
    INSERT INTO regions (name, slug, color, lat, lng, spbu_count, spbe_count)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+regionColumns,
		in.Name, in.Slug, in.Color, in.Lat, in.Lng, in.SPBUCount, in.SPBECount))
	if err != nil {
		return Region{}, wrap("insert region", err)
	}
	return r, nil
}

func (s *Store) UpdateRegion(ctx context.Context, id int64, in RegionInput) (Region, error) {
	r, err := scanRegion(s.db.QueryRow(ctx, `
    UPDATE regions
    SET name=$1, slug=$2, color=$3, lat=$4, lng=$5, spbu_count=$6, spbe_count=$7, updated_at=now()
    WHERE id=$8
    RETURNING `+regionColumns,
		in.Name, in.Slug, in.Color, in.Lat, in.Lng, in.SPBUCount, in.SPBECount, id))
	if err != nil {
		return Region{}, wrap("update region", err)
	}
	return r, nil
}

func (s *Store) DeleteRegion(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM regions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete region: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
