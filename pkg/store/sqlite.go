package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"geotale/pkg/db"
	"geotale/pkg/model"
)

// SQLiteStore implements Store on the shared sqlite handle.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- History ---

func (s *SQLiteStore) LoadHeard(ctx context.Context, userKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT poi_key FROM user_poi_history WHERE user_key = ?`, userKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) MarkHeard(ctx context.Context, userKey, poiKey string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_poi_history (user_key, poi_key, first_seen_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_key, poi_key) DO NOTHING`,
		userKey, poiKey, at.UTC())
	return err
}

// --- POI cache ---

func (s *SQLiteStore) GetPOICache(ctx context.Context, key string) ([]byte, bool) {
	row := s.db.QueryRowContext(ctx,
		`SELECT poi_json FROM poi_cache WHERE cache_key = ?`, key)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, false
	}
	return raw, true
}

func (s *SQLiteStore) SetPOICache(ctx context.Context, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO poi_cache (cache_key, poi_json, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (cache_key) DO UPDATE SET poi_json = excluded.poi_json, updated_at = CURRENT_TIMESTAMP`,
		key, val)
	return err
}

// PrunePOICache removes cache entries older than the given duration.
func (s *SQLiteStore) PrunePOICache(olderThan time.Duration) error {
	deadline := time.Now().Add(-olderThan).UTC().Format("2006-01-02 15:04:05")
	_, err := s.db.Exec(`DELETE FROM poi_cache WHERE updated_at < ?`, deadline)
	return err
}

// --- Exposure log ---

func (s *SQLiteStore) AppendExposure(ctx context.Context, rec *model.ExposureRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exposure_log (created_at, user_id, lat, lng, poi_key, poi_name, poi_source,
		   distance_meters, should_speak, reason, taste_profile_id, story_len)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC(), rec.UserKey, rec.Lat, rec.Lng, rec.PoiKey, rec.PoiName, rec.PoiSource,
		rec.DistanceMeters, rec.ShouldSpeak, rec.Reason, rec.TasteProfileID, rec.StoryLen)
	return err
}

// --- Taste profiles ---

func (s *SQLiteStore) GetTaste(ctx context.Context, id string) (*model.TasteProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM taste_profiles WHERE id = ?`, id)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var t model.TasteProfile
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("corrupt taste profile %s: %w", id, err)
	}
	return &t, nil
}

func (s *SQLiteStore) SaveTaste(ctx context.Context, id string, t model.TasteProfile) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO taste_profiles (id, data, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		id, raw)
	return err
}
