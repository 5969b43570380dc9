package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetSettings returns the single settings row, or zero Settings when it has
// never been written.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var st Settings
	err := s.db.QueryRow(ctx, `SELECT map_svg, updated_at FROM settings WHERE id = 1`).Scan(&st.MapSVG, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (s *Store) PutSettings(ctx context.Context, mapSVG string) (Settings, error) {
	var st Settings
	err := s.db.QueryRow(ctx, `
    INSERT INTO settings (id, map_svg) VALUES (1, $1)
    ON CONFLICT (id) DO UPDATE SET map_svg = EXCLUDED.map_svg, updated_at = now()
    RETURNING map_svg, updated_at
  `, mapSVG).Scan(&st.MapSVG, &st.UpdatedAt)
	if err != nil {
		return Settings{}, fmt.Errorf("put settings: %w", err)
	}
	return st, nil
}
