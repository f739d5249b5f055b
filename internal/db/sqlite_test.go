package db

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	first, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.SetSetting("k", "v"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	first.Close()

	second, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	got, err := second.GetSetting("k")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "v" {
		t.Errorf("setting lost across reopen: %q", got)
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetSetting("missing")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Errorf("missing setting = %q, want empty", v)
	}

	if err := db.SetSetting("notification_permission", "granted"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting("notification_permission", "denied"); err != nil {
		t.Fatal(err)
	}
	v, _ = db.GetSetting("notification_permission")
	if v != "denied" {
		t.Errorf("upsert failed, got %q", v)
	}

	all, err := db.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all["notification_permission"] != "denied" {
		t.Errorf("GetAllSettings = %v", all)
	}
}

func TestCacheExpiry(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	type place struct {
		Lat, Lon float64
	}
	if err := db.PutCached("geo:berlin", place{52.5, 13.4}, now, time.Hour); err != nil {
		t.Fatalf("PutCached: %v", err)
	}

	var got place
	ok, err := db.GetCached("geo:berlin", now.Add(30*time.Minute), &got)
	if err != nil || !ok {
		t.Fatalf("GetCached ok=%v err=%v", ok, err)
	}
	if got.Lat != 52.5 || got.Lon != 13.4 {
		t.Errorf("cached value = %+v", got)
	}

	ok, err = db.GetCached("geo:berlin", now.Add(2*time.Hour), &got)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expired entry returned")
	}

	n, err := db.PurgeExpired(now.Add(2 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d rows, want 1", n)
	}
}

func TestAlarmHistory(t *testing.T) {
	db := openTestDB(t)

	latest, err := db.LatestAlarm("Home", "Office")
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Fatalf("expected no alarm, got %+v", latest)
	}

	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	alarms := []*Alarm{
		{Start: "Home", End: "Office", ArrivalTime: "09:00", GettingReady: 30, ETA: 25, AlarmTime: "08:05", CreatedAt: base},
		{Start: "Home", End: "Gym", ArrivalTime: "07:00", GettingReady: 10, ETA: 10, AlarmTime: "06:40", CreatedAt: base.Add(time.Minute)},
		{Start: "Home", End: "Office", ArrivalTime: "09:00", GettingReady: 30, ETA: 25, Margin: 10, AlarmTime: "07:55", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range alarms {
		if err := db.RecordAlarm(a); err != nil {
			t.Fatalf("RecordAlarm: %v", err)
		}
		if a.ID == "" {
			t.Fatal("RecordAlarm did not assign an ID")
		}
	}

	latest, err = db.LatestAlarm("Home", "Office")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.AlarmTime != "07:55" || latest.Margin != 10 {
		t.Errorf("LatestAlarm = %+v", latest)
	}

	list, err := db.ListAlarms(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("ListAlarms returned %d rows", len(list))
	}
	if list[0].AlarmTime != "07:55" || list[1].End != "Gym" {
		t.Errorf("ListAlarms order wrong: %s, %s", list[0].AlarmTime, list[1].End)
	}
	if !list[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v", list[0].CreatedAt)
	}
}
