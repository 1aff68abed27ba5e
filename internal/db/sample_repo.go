package db

import (
	"context"
	"time"

	"seasafe/internal/types"
)

// SampleRepository provides data access for the weather_samples table. The
// poller appends fetched samples every cycle; the API reads recent history
// for a location.
type SampleRepository struct {
	db DBTX
}

// NewSampleRepository creates a SampleRepository backed by the given
// database connection (pool or transaction).
func NewSampleRepository(db DBTX) *SampleRepository {
	return &SampleRepository{db: db}
}

// Insert appends one weather sample.
func (r *SampleRepository) Insert(ctx context.Context, s types.WeatherSample) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO weather_samples
		 (lat, lon, ts, wave_height, wave_period, wind_wave_height,
		  swell_wave_height, wind_speed, wind_gusts, visibility)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (lat, lon, ts) DO UPDATE SET
			wave_height = EXCLUDED.wave_height,
			wave_period = EXCLUDED.wave_period,
			wind_wave_height = EXCLUDED.wind_wave_height,
			swell_wave_height = EXCLUDED.swell_wave_height,
			wind_speed = EXCLUDED.wind_speed,
			wind_gusts = EXCLUDED.wind_gusts,
			visibility = EXCLUDED.visibility`,
		s.Latitude,
		s.Longitude,
		s.Timestamp,
		s.WaveHeight,
		s.WavePeriod,
		s.WindWaveHeight,
		s.SwellWaveHeight,
		s.WindSpeed,
		s.WindGusts,
		s.Visibility,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert weather sample", err)
	}
	return nil
}

// InsertBatch appends a slice of samples. Each row is upserted individually;
// a failure aborts the remainder. Callers that need atomicity pass a pgx.Tx
// as the DBTX.
func (r *SampleRepository) InsertBatch(ctx context.Context, samples []types.WeatherSample) error {
	for _, s := range samples {
		if err := r.Insert(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// RecentByLocation returns samples for the given location bucket newer than
// the cutoff, most recent first. Locations are matched on a ~1km grid, the
// same bucketing the in-memory forecast cache uses.
func (r *SampleRepository) RecentByLocation(ctx context.Context, loc types.Location, since time.Time, limit int) ([]types.WeatherSample, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT lat, lon, ts, wave_height, wave_period, wind_wave_height,
		        swell_wave_height, wind_speed, wind_gusts, visibility
		 FROM weather_samples
		 WHERE round(lat::numeric, 2) = round($1::numeric, 2)
		   AND round(lon::numeric, 2) = round($2::numeric, 2)
		   AND ts >= $3
		 ORDER BY ts DESC
		 LIMIT $4`,
		loc.Lat,
		loc.Lon,
		since,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query weather samples", err)
	}
	defer rows.Close()

	var results []types.WeatherSample
	for rows.Next() {
		var s types.WeatherSample
		if err := rows.Scan(
			&s.Latitude,
			&s.Longitude,
			&s.Timestamp,
			&s.WaveHeight,
			&s.WavePeriod,
			&s.WindWaveHeight,
			&s.SwellWaveHeight,
			&s.WindSpeed,
			&s.WindGusts,
			&s.Visibility,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan weather sample row", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating weather sample rows", err)
	}

	return results, nil
}

// DeleteBefore hard-deletes samples older than the cutoff. Used for
// retention cleanup. Returns the count of deleted rows.
func (r *SampleRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM weather_samples WHERE ts < $1`,
		cutoff,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to delete old weather samples", err)
	}
	return tag.RowsAffected(), nil
}
