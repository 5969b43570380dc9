package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// AllKey is the region_key of the synthetic row holding network-wide totals.
const AllKey = "ALL"

const allRegionName = "Semua Wilayah"

type RegionStat struct {
	RegionKey      string    `json:"region_key"`
	RegionName     string    `json:"region_name"`
	SPBUTotal      int64     `json:"spbu_total"`
	SPBETotal      int64     `json:"spbe_total"`
	LPGAgentTotal  int64     `json:"lpg_agent_total"`
	PangkalanTotal int64     `json:"pangkalan_total"`
	PertashopTotal int64     `json:"pertashop_total"`
	FuelVolumeKL   float64   `json:"fuel_volume_kl"`
	LPGVolumeTon   float64   `json:"lpg_volume_ton"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func IsAllKey(key string) bool {
	return strings.EqualFold(strings.TrimSpace(key), AllKey)
}

// SumStats totals every row except the ALL row. NULL columns arrive as zero.
func SumStats(rows []RegionStat) RegionStat {
	sum := RegionStat{RegionKey: AllKey, RegionName: allRegionName}
	for _, r := range rows {
		if IsAllKey(r.RegionKey) {
			continue
		}
		sum.SPBUTotal += r.SPBUTotal
		sum.SPBETotal += r.SPBETotal
		sum.LPGAgentTotal += r.LPGAgentTotal
		sum.PangkalanTotal += r.PangkalanTotal
		sum.PertashopTotal += r.PertashopTotal
		sum.FuelVolumeKL += r.FuelVolumeKL
		sum.LPGVolumeTon += r.LPGVolumeTon
	}
	return sum
}

const statColumns = `region_key, region_name,
    COALESCE(spbu_total, 0), COALESCE(spbe_total, 0), COALESCE(lpg_agent_total, 0),
    COALESCE(pangkalan_total, 0), COALESCE(pertashop_total, 0),
    COALESCE(fuel_volume_kl, 0), COALESCE(lpg_volume_ton, 0), updated_at`

func scanStat(row rowScanner) (RegionStat, error) {
	var st RegionStat
	err := row.Scan(&st.RegionKey, &st.RegionName, &st.SPBUTotal, &st.SPBETotal, &st.LPGAgentTotal,
		&st.PangkalanTotal, &st.PertashopTotal, &st.FuelVolumeKL, &st.LPGVolumeTon, &st.UpdatedAt)
	return st, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func listStats(ctx context.Context, q querier) ([]RegionStat, error) {
	rows, err := q.Query(ctx, `SELECT `+statColumns+` FROM region_stats ORDER BY (region_key = 'ALL') DESC, region_name`)
	if err != nil {
		return nil, fmt.Errorf("list region stats: %w", err)
	}
	defer rows.Close()

	out := []RegionStat{}
	for rows.Next() {
		st, err := scanStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan region stat: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func upsertStat(ctx context.Context, q querier, st RegionStat) (RegionStat, error) {
	out, err := scanStat(q.QueryRow(ctx, `
    INSERT INTO region_stats (region_key, region_name, spbu_total, spbe_total, lpg_agent_total,
      pangkalan_total, pertashop_total, fuel_volume_kl, lpg_volume_ton)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    ON CONFLICT (region_key) DO UPDATE SET
      region_name = EXCLUDED.region_name,
      spbu_total = EXCLUDED.spbu_total,
      spbe_total = EXCLUDED.spbe_total,
      lpg_agent_total = EXCLUDED.lpg_agent_total,
      pangkalan_total = EXCLUDED.pangkalan_total,
      pertashop_total = EXCLUDED.pertashop_total,
      fuel_volume_kl = EXCLUDED.fuel_volume_kl,
      lpg_volume_ton = EXCLUDED.lpg_volume_ton,
      updated_at = now()
    RETURNING `+statColumns,
		st.RegionKey, st.RegionName, st.SPBUTotal, st.SPBETotal, st.LPGAgentTotal,
		st.PangkalanTotal, st.PertashopTotal, st.FuelVolumeKL, st.LPGVolumeTon))
	if err != nil {
		return RegionStat{}, fmt.Errorf("upsert region stat %s: %w", st.RegionKey, err)
	}
	return out, nil
}

func (s *Store) ListRegionStats(ctx context.Context) ([]RegionStat, error) {
	return listStats(ctx, s.db)
}

func (s *Store) GetRegionStat(ctx context.Context, key string) (RegionStat, error) {
	st, err := scanStat(s.db.QueryRow(ctx, `SELECT `+statColumns+` FROM region_stats WHERE region_key = $1`, key))
	if err != nil {
		return RegionStat{}, wrap("get region stat", err)
	}
	return st, nil
}

// UpsertRegionStat writes one regional row. The ALL row is owned by RecomputeAll.
func (s *Store) UpsertRegionStat(ctx context.Context, st RegionStat) (RegionStat, error) {
	if IsAllKey(st.RegionKey) {
		return RegionStat{}, ErrReservedKey
	}
	return upsertStat(ctx, s.db, st)
}

func (s *Store) DeleteRegionStat(ctx context.Context, key string) error {
	if IsAllKey(key) {
		return ErrReservedKey
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM region_stats WHERE region_key=$1`, key)
	if err != nil {
		return fmt.Errorf("delete region stat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecomputeAll rewrites the ALL row as the sum of every other row.
func (s *Store) RecomputeAll(ctx context.Context) (RegionStat, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return RegionStat{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := listStats(ctx, tx)
	if err != nil {
		return RegionStat{}, err
	}
	all, err := upsertStat(ctx, tx, SumStats(rows))
	if err != nil {
		return RegionStat{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return RegionStat{}, fmt.Errorf("commit recompute: %w", err)
	}
	return all, nil
}
