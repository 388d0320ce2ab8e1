package groundwater

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
	"github.com/couchcryptid/hydro-assess-service/internal/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS groundwater_stations (
	id                     TEXT PRIMARY KEY,
	latitude               DOUBLE PRECISION NOT NULL,
	longitude              DOUBLE PRECISION NOT NULL,
	post_monsoon_depth_m   DOUBLE PRECISION NOT NULL,
	pre_monsoon_depth_m    DOUBLE PRECISION NOT NULL,
	principal_aquifer_type TEXT NOT NULL DEFAULT 'Unknown',
	aquifer_yield          TEXT NOT NULL DEFAULT 'Moderate',
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS groundwater_stations_lat_lon_idx ON groundwater_stations (latitude, longitude);
`

// Planar distance in degrees over unprojected WGS-84 points; ties go to the lowest ID.
const nearestQuery = `
SELECT id, latitude, longitude, post_monsoon_depth_m, pre_monsoon_depth_m,
       principal_aquifer_type, aquifer_yield
FROM groundwater_stations
ORDER BY (latitude - $1) * (latitude - $1) + (longitude - $2) * (longitude - $2), id
LIMIT 1`

// Store is a PostgreSQL-backed groundwater station table.
// It implements domain.GroundwaterProvider.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open groundwater database: %w", err)
	}
	s := NewStore(db, timeout, metrics, logger)
	if err := s.CheckReadiness(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing database handle. A zero timeout disables the
// per-query deadline.
func NewStore(db *sql.DB, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Store {
	return &Store{db: db, timeout: timeout, metrics: metrics, logger: logger}
}

// Migrate creates the station table and index if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate groundwater schema: %w", err)
	}
	return nil
}

// Lookup returns groundwater data from the station nearest to lat/lon.
func (s *Store) Lookup(ctx context.Context, lat, lon float64) (domain.GroundwaterData, error) {
	st, err := s.Nearest(ctx, lat, lon)
	if err != nil {
		return domain.GroundwaterData{}, err
	}
	return st.Groundwater(), nil
}

// Nearest returns the station closest to lat/lon, or domain.ErrStationNotFound
// when the table is empty.
func (s *Store) Nearest(ctx context.Context, lat, lon float64) (domain.Station, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	var st domain.Station
	err := s.db.QueryRowContext(ctx, nearestQuery, lat, lon).Scan(
		&st.ID,
		&st.Latitude,
		&st.Longitude,
		&st.PostMonsoonDepthM,
		&st.PreMonsoonDepthM,
		&st.PrincipalAquiferType,
		&st.AquiferYield,
	)
	s.metrics.GroundwaterQueryDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Station{}, domain.ErrStationNotFound
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("query nearest station: %w", err)
	}
	return st, nil
}

// ImportStations bulk-loads stations with COPY into a staging table and
// upserts them by ID in one transaction. Returns the number of rows written.
func (s *Store) ImportStations(ctx context.Context, stations []domain.Station) (int, error) {
	if len(stations) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE groundwater_stations_staging
		(LIKE groundwater_stations INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("groundwater_stations_staging",
		"id", "latitude", "longitude", "post_monsoon_depth_m", "pre_monsoon_depth_m",
		"principal_aquifer_type", "aquifer_yield"))
	if err != nil {
		return 0, fmt.Errorf("prepare copy: %w", err)
	}
	for _, st := range stations {
		if _, err := stmt.ExecContext(ctx, st.ID, st.Latitude, st.Longitude,
			st.PostMonsoonDepthM, st.PreMonsoonDepthM, st.PrincipalAquiferType, st.AquiferYield); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("copy station %s: %w", st.ID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("close copy: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO groundwater_stations (id, latitude, longitude, post_monsoon_depth_m,
			pre_monsoon_depth_m, principal_aquifer_type, aquifer_yield, updated_at)
		SELECT DISTINCT ON (id) id, latitude, longitude, post_monsoon_depth_m,
			pre_monsoon_depth_m, principal_aquifer_type, aquifer_yield, now()
		FROM groundwater_stations_staging
		ORDER BY id
		ON CONFLICT (id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			post_monsoon_depth_m = EXCLUDED.post_monsoon_depth_m,
			pre_monsoon_depth_m = EXCLUDED.pre_monsoon_depth_m,
			principal_aquifer_type = EXCLUDED.principal_aquifer_type,
			aquifer_yield = EXCLUDED.aquifer_yield,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("upsert stations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	n, _ := res.RowsAffected()
	s.logger.Info("groundwater stations imported", "rows", n)
	return int(n), nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping groundwater database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
