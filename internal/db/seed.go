package db

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type seedRegion struct {
	id       int
	name     string
	slug     string
	color    string
	lat, lng float64
}

var seedRegions = []seedRegion{
	{1, "DKI Jakarta", "dki-jakarta", "#2563eb", -6.2088, 106.8456},
	{2, "Jawa Barat", "jawa-barat", "#16a34a", -6.9147, 107.6098},
	{3, "Banten", "banten", "#f59e0b", -6.1200, 106.1503},
	{4, "Jawa Tengah", "jawa-tengah", "#dc2626", -7.1509, 110.1403},
}

var (
	fuelProducts = []string{"Pertalite", "Pertamax", "Pertamax Turbo", "Solar", "Dexlite"}
	lpgProducts  = []string{"3kg", "5.5kg", "12kg", "50kg"}
)

// Seed writes demo regions, outlets, six months of sales and the stat rows.
// Idempotent: fixed IDs + ON CONFLICT DO NOTHING.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, r := range seedRegions {
		if _, err := tx.Exec(ctx, `
      INSERT INTO regions (id, name, slug, color, lat, lng)
      VALUES ($1,$2,$3,$4,$5,$6)
      ON CONFLICT (id) DO NOTHING
    `, r.id, r.name, r.slug, r.color, r.lat, r.lng); err != nil {
			return fmt.Errorf("seed regions: %w", err)
		}
	}

	// Outlets: three SPBU and one SPBE per region, scattered around the centre.
	rng := rand.New(rand.NewSource(42))
	type outlet struct {
		id     int
		region seedRegion
		typ    string
	}
	var outlets []outlet
	locID := 1
	for _, r := range seedRegions {
		for j := 0; j < 4; j++ {
			typ, services := "SPBU", []string{"BBM", "Toilet", "Musholla"}
			name := fmt.Sprintf("SPBU %d%d.%03d", 30+r.id, j+1, 100+rng.Intn(900))
			hours := "24 jam"
			if j == 3 {
				typ, services = "SPBE", []string{"LPG 3kg", "LPG 12kg", "LPG 50kg"}
				name = fmt.Sprintf("SPBE %s", r.name)
				hours = "07:00 - 17:00"
			}
			lat := r.lat + (rng.Float64()-0.5)*0.3
			lng := r.lng + (rng.Float64()-0.5)*0.3
			if _, err := tx.Exec(ctx, `
        INSERT INTO locations (id, region_id, name, type, address, hours, phone, services, lat, lng)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (id) DO NOTHING
      `, locID, r.id, name, typ, fmt.Sprintf("Jl. Raya %s No. %d", r.name, 10+rng.Intn(190)),
				hours, fmt.Sprintf("021-%07d", rng.Intn(10000000)), services, lat, lng); err != nil {
				return fmt.Errorf("seed locations: %w", err)
			}
			outlets = append(outlets, outlet{id: locID, region: r, typ: typ})
			locID++
		}
	}

	// Monthly sales: last 6 months incl current.
	now := time.Now().UTC()
	month0 := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	fuelKL := map[int]float64{}
	lpgTon := map[int]float64{}
	for i := 0; i < 6; i++ {
		period := month0.AddDate(0, -i, 0).Format("2006-01")
		for _, o := range outlets {
			if o.typ == "SPBU" {
				for _, p := range fuelProducts {
					vol := math.Round((40+rng.Float64()*260)*100) / 100
					if _, err := tx.Exec(ctx, `
            INSERT INTO fuel_sales (location_id, period, product, volume_kl)
            VALUES ($1,$2,$3,$4)
            ON CONFLICT (location_id, period, product) DO NOTHING
          `, o.id, period, p, vol); err != nil {
						return fmt.Errorf("seed fuel_sales: %w", err)
					}
					fuelKL[o.region.id] += vol
				}
				continue
			}
			for _, p := range lpgProducts {
				vol := math.Round((5+rng.Float64()*120)*100) / 100
				if _, err := tx.Exec(ctx, `
          INSERT INTO lpg_sales (location_id, period, product, volume_ton)
          VALUES ($1,$2,$3,$4)
          ON CONFLICT (location_id, period, product) DO NOTHING
        `, o.id, period, p, vol); err != nil {
					return fmt.Errorf("seed lpg_sales: %w", err)
				}
				lpgTon[o.region.id] += vol
			}
		}
	}

	// Region counts and stat rows. The ALL row is derived from the others.
	for _, r := range seedRegions {
		if _, err := tx.Exec(ctx, `
      UPDATE regions SET
        spbu_count = (SELECT count(*) FROM locations WHERE region_id = $1 AND type = 'SPBU'),
        spbe_count = (SELECT count(*) FROM locations WHERE region_id = $1 AND type = 'SPBE')
      WHERE id = $1
    `, r.id); err != nil {
			return fmt.Errorf("seed region counts: %w", err)
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO region_stats (region_key, region_name, spbu_total, spbe_total, lpg_agent_total,
        pangkalan_total, pertashop_total, fuel_volume_kl, lpg_volume_ton)
      VALUES ($1,$2,3,1,$3,$4,$5,$6,$7)
      ON CONFLICT (region_key) DO NOTHING
    `, r.slug, r.name, 5+rng.Intn(20), 100+rng.Intn(400), 10+rng.Intn(60),
			math.Round(fuelKL[r.id]*100)/100, math.Round(lpgTon[r.id]*100)/100); err != nil {
			return fmt.Errorf("seed region_stats: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO region_stats (region_key, region_name, spbu_total, spbe_total, lpg_agent_total,
      pangkalan_total, pertashop_total, fuel_volume_kl, lpg_volume_ton)
    SELECT 'ALL', 'Semua Wilayah',
      COALESCE(SUM(spbu_total),0), COALESCE(SUM(spbe_total),0), COALESCE(SUM(lpg_agent_total),0),
      COALESCE(SUM(pangkalan_total),0), COALESCE(SUM(pertashop_total),0),
      COALESCE(SUM(fuel_volume_kl),0), COALESCE(SUM(lpg_volume_ton),0)
    FROM region_stats WHERE upper(region_key) <> 'ALL'
    ON CONFLICT (region_key) DO NOTHING
  `); err != nil {
		return fmt.Errorf("seed ALL stat: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO settings (id, map_svg) VALUES (1, '') ON CONFLICT (id) DO NOTHING`); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	// Reset sequences to max(id)
	for _, t := range []string{"regions", "locations", "fuel_sales", "lpg_sales"} {
		_, _ = tx.Exec(ctx, fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s','id'), (SELECT COALESCE(MAX(id),1) FROM %s))`, t, t))
	}

	return tx.Commit(ctx)
}
