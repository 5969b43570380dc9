package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

func salesWhere(f SalesFilter) (string, []any) {
	where := []string{}
	args := []any{}
	if f.LocationID > 0 {
		args = append(args, f.LocationID)
		where = append(where, "s.location_id = $"+strconv.Itoa(len(args)))
	}
	if f.Period != "" {
		args = append(args, f.Period)
		where = append(where, "s.period = $"+strconv.Itoa(len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *Store) ListFuelSales(ctx context.Context, f SalesFilter) ([]FuelSale, error) {
	where, args := salesWhere(f)
	rows, err := s.db.Query(ctx, `
    SELECT s.id, s.location_id, l.name, s.period, s.product, s.volume_kl, s.updated_at
    FROM fuel_sales s
    JOIN locations l ON l.id = s.location_id`+where+`
    ORDER BY s.period DESC, l.name, s.product
  `, args...)
	if err != nil {
		return nil, fmt.Errorf("list fuel sales: %w", err)
	}
	defer rows.Close()

	out := []FuelSale{}
	for rows.Next() {
		var fs FuelSale
		if err := rows.Scan(&fs.ID, &fs.LocationID, &fs.LocationName, &fs.Period, &fs.Product, &fs.VolumeKL, &fs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan fuel sale: %w", err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

// UpsertFuelSales writes all rows in one transaction; any failure leaves the
// table untouched.
func (s *Store) UpsertFuelSales(ctx context.Context, in []FuelSale) ([]FuelSale, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]FuelSale, 0, len(in))
	for _, fs := range in {
		err := tx.QueryRow(ctx, `
      INSERT INTO fuel_sales (location_id, period, product, volume_kl)
      VALUES ($1,$2,$3,$4)
      ON CONFLICT (location_id, period, product)
      DO UPDATE SET volume_kl = EXCLUDED.volume_kl, updated_at = now()
      RETURNING id, updated_at
    `, fs.LocationID, fs.Period, fs.Product, fs.VolumeKL).Scan(&fs.ID, &fs.UpdatedAt)
		if err != nil {
			return nil, wrap("upsert fuel sale", err)
		}
		out = append(out, fs)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit fuel sales: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteFuelSale(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM fuel_sales WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete fuel sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListLPGSales(ctx context.Context, f SalesFilter) ([]LPGSale, error) {
	where, args := salesWhere(f)
	rows, err := s.db.Query(ctx, `
    SELECT s.id, s.location_id, l.name, s.period, s.product, s.volume_ton, s.updated_at
    FROM lpg_sales s
    JOIN locations l ON l.id = s.location_id`+where+`
    ORDER BY s.period DESC, l.name, s.product
  `, args...)
	if err != nil {
		return nil, fmt.Errorf("list lpg sales: %w", err)
	}
	defer rows.Close()

	out := []LPGSale{}
	for rows.Next() {
		var ls LPGSale
		if err := rows.Scan(&ls.ID, &ls.LocationID, &ls.LocationName, &ls.Period, &ls.Product, &ls.VolumeTon, &ls.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lpg sale: %w", err)
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

func (s *Store) UpsertLPGSales(ctx context.Context, in []LPGSale) ([]LPGSale, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]LPGSale, 0, len(in))
	for _, ls := range in {
		err := tx.QueryRow(ctx, `
      INSERT INTO lpg_sales (location_id, period, product, volume_ton)
      VALUES ($1,$2,$3,$4)
      ON CONFLICT (location_id, period, product)
      DO UPDATE SET volume_ton = EXCLUDED.volume_ton, updated_at = now()
      RETURNING id, updated_at
    `, ls.LocationID, ls.Period, ls.Product, ls.VolumeTon).Scan(&ls.ID, &ls.UpdatedAt)
		if err != nil {
			return nil, wrap("upsert lpg sale", err)
		}
		out = append(out, ls)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit lpg sales: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteLPGSale(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM lpg_sales WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete lpg sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
