package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetCached decodes a cached JSON value into v. It reports false when the key
// is missing or expired.
func (db *DB) GetCached(key string, now time.Time, v any) (bool, error) {
	var raw string
	err := db.QueryRow(
		"SELECT value FROM cache WHERE key = ? AND expires_at > ?",
		key, now.Unix(),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cache: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// PutCached stores v as JSON until now+ttl.
func (db *DB) PutCached(key string, v any, now time.Time, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	_, err = db.Exec(`
		INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, string(data), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("put cache: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired cache rows and returns how many were removed.
func (db *DB) PurgeExpired(now time.Time) (int64, error) {
	res, err := db.Exec("DELETE FROM cache WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}
