package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const locationColumns = `id, region_id, name, type, address, hours, phone, services, lat, lng, created_at, updated_at`

func scanLocation(row rowScanner) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.RegionID, &l.Name, &l.Type, &l.Address, &l.Hours, &l.Phone, &l.Services, &l.Lat, &l.Lng, &l.CreatedAt, &l.UpdatedAt)
	if l.Services == nil {
		l.Services = []string{}
	}
	return l, err
}

func (s *Store) ListLocations(ctx context.Context, f LocationFilter) ([]Location, error) {
	where := []string{}
	args := []any{}
	if f.RegionID > 0 {
		args = append(args, f.RegionID)
		where = append(where, "region_id = $"+strconv.Itoa(len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, "type = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + locationColumns + ` FROM locations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY region_id, name"

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := []Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) GetLocation(ctx context.Context, id int64) (Location, error) {
	l, err := scanLocation(s.db.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if err != nil {
		return Location{}, wrap("get location", err)
	}
	return l, nil
}

func (s *Store) CreateLocation(ctx context.Context, in LocationInput) (Location, error) {
	l, err := scanLocation(s.db.QueryRow(ctx, `
    INSERT INTO locations (region_id, name, type, address, hours, phone, services, lat, lng)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+locationColumns,
		in.RegionID, in.Name, in.Type, in.Address, in.Hours, in.Phone, in.Services, in.Lat, in.Lng))
	if err != nil {
		return Location{}, wrap("insert location", err)
	}
	return l, nil
}

func (s *Store) UpdateLocation(ctx context.Context, id int64, in LocationInput) (Location, error) {
	l, err := scanLocation(s.db.QueryRow(ctx, `
    UPDATE locations
    SET region_id=$1, name=$2, type=$3, address=$4, hours=$5, phone=$6, services=$7, lat=$8, lng=$9, updated_at=now()
    WHERE id=$10
    RETURNING `+locationColumns,
		in.RegionID, in.Name, in.Type, in.Address, in.Hours, in.Phone, in.Services, in.Lat, in.Lng, id))
	if err != nil {
		return Location{}, wrap("update location", err)
	}
	return l, nil
}

func (s *Store) DeleteLocation(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM locations WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
