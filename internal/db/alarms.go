package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alarm is one computed wake-up recommendation.
type Alarm struct {
	ID           string
	Start        string
	End          string
	ArrivalTime  string // HH:MM
	GettingReady int    // minutes
	ETA          int    // minutes
	Margin       int    // minutes
	AlarmTime    string // HH:MM
	CreatedAt    time.Time
}

// RecordAlarm stores an alarm, assigning ID and CreatedAt when unset.
func (db *DB) RecordAlarm(a *Alarm) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO alarms (id, start_place, end_place, arrival_time, getting_ready, eta, margin, alarm_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Start, a.End, a.ArrivalTime, a.GettingReady, a.ETA, a.Margin, a.AlarmTime, a.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert alarm: %w", err)
	}
	return nil
}

// LatestAlarm returns the most recent alarm for a route, or nil.
func (db *DB) LatestAlarm(start, end string) (*Alarm, error) {
	row := db.QueryRow(`
		SELECT id, start_place, end_place, arrival_time, getting_ready, eta, margin, alarm_time, created_at
		FROM alarms
		WHERE start_place = ? AND end_place = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, start, end)
	a, err := scanAlarm(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest alarm: %w", err)
	}
	return a, nil
}

// ListAlarms returns the newest alarms first.
func (db *DB) ListAlarms(limit int) ([]*Alarm, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, start_place, end_place, arrival_time, getting_ready, eta, margin, alarm_time, created_at
		FROM alarms
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []*Alarm
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlarm(s scanner) (*Alarm, error) {
	a := &Alarm{}
	var created int64
	if err := s.Scan(&a.ID, &a.Start, &a.End, &a.ArrivalTime, &a.GettingReady, &a.ETA, &a.Margin, &a.AlarmTime, &created); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(0, created)
	return a, nil
}
