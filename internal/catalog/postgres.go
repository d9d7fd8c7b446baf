package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const phonesSchema = `
CREATE TABLE IF NOT EXISTS phones (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  brand TEXT NOT NULL DEFAULT '',
  price_inr INTEGER NOT NULL,
  battery_mah INTEGER NOT NULL DEFAULT 0,
  main_camera_mp INTEGER NOT NULL DEFAULT 0,
  display_inches DOUBLE PRECISION NOT NULL DEFAULT 0,
  refresh_rate_hz INTEGER NOT NULL DEFAULT 60,
  ram_gb INTEGER NOT NULL DEFAULT 0,
  storage_gb INTEGER NOT NULL DEFAULT 0,
  charging_watts INTEGER NOT NULL DEFAULT 0,
  has_5g BOOLEAN NOT NULL DEFAULT FALSE,
  weight_grams INTEGER NOT NULL DEFAULT 0,
  os TEXT NOT NULL DEFAULT '',
  features TEXT NOT NULL DEFAULT ''
);
`

// loadPostgres reads the catalog from Postgres, creating and seeding the
// phones table from the embedded catalog on first run.
func loadPostgres(ctx context.Context, dsn string, log *zap.Logger) ([]Phone, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("catalog: open postgres: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("catalog: ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, phonesSchema); err != nil {
		return nil, fmt.Errorf("catalog: ensure schema: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM phones`).Scan(&count); err != nil {
		return nil, fmt.Errorf("catalog: count phones: %w", err)
	}
	if count == 0 {
		seed, err := parseCSV(embeddedCSV)
		if err != nil {
			return nil, err
		}
		if err := seedPhones(ctx, db, seed); err != nil {
			return nil, fmt.Errorf("catalog: seed phones: %w", err)
		}
		log.Info("seeded phones table from embedded catalog", zap.Int("phones", len(seed)))
	}

	return queryPhones(ctx, db)
}

func seedPhones(ctx context.Context, db *sql.DB, phones []Phone) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range phones {
		_, err := tx.ExecContext(ctx, `
INSERT INTO phones (
  id, name, brand, price_inr, battery_mah, main_camera_mp, display_inches,
  refresh_rate_hz, ram_gb, storage_gb, charging_watts, has_5g, weight_grams,
  os, features
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Brand, p.PriceINR, p.BatteryMAh, p.MainCameraMP,
			p.DisplayInches, p.RefreshRateHz, p.RAMGB, p.StorageGB,
			p.ChargingWatts, p.Has5G, p.WeightGrams, p.OS,
			strings.Join(p.Features, ";"))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func queryPhones(ctx context.Context, db *sql.DB) ([]Phone, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, brand, price_inr, battery_mah, main_camera_mp, display_inches,
  refresh_rate_hz, ram_gb, storage_gb, charging_watts, has_5g, weight_grams,
  os, features
FROM phones
ORDER BY price_inr DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query phones: %w", err)
	}
	defer rows.Close()

	var out []Phone
	for rows.Next() {
		var p Phone
		var features string
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Brand, &p.PriceINR, &p.BatteryMAh,
			&p.MainCameraMP, &p.DisplayInches, &p.RefreshRateHz, &p.RAMGB,
			&p.StorageGB, &p.ChargingWatts, &p.Has5G, &p.WeightGrams,
			&p.OS, &features,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan phone: %w", err)
		}
		p.Features = splitFeatures(features)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
