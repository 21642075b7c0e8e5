package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

// insertStateHistoryRow inserts a row with a specific timestamp.
func insertStateHistoryRow(t *testing.T, db *sql.DB, address, stateJSON string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO state_history (address, state, source, created_at) VALUES (?, ?, ?, ?)",
		address, stateJSON, StateHistorySourcePoll, createdAt.UTC().Format(historyTimeFormat),
	)
	if err != nil {
		t.Fatalf("failed to insert state history row: %v", err)
	}
}

func TestRecordStateChange(t *testing.T) {
	repo := NewSQLiteStateHistoryRepository(setupTestDB(t))
	ctx := context.Background()

	rec := NewRecord(map[string]string{PowerSwitch: PowerOn, WindSpeed: "3"})
	if err := repo.RecordStateChange(ctx, "0b01", rec, StateHistorySourceCommand); err != nil {
		t.Fatalf("RecordStateChange() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "0b01", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.Address != "0b01" || entry.Source != StateHistorySourceCommand {
		t.Errorf("entry = %+v", entry)
	}
	if entry.State[WindSpeed] != "3" || entry.State[PowerSwitch] != "1" {
		t.Errorf("state = %v", entry.State)
	}
	if time.Since(entry.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt = %v, want recent", entry.CreatedAt)
	}
}

func TestRecordStateChange_Defaults(t *testing.T) {
	repo := NewSQLiteStateHistoryRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.RecordStateChange(ctx, "0a12", nil, ""); err != nil {
		t.Fatalf("RecordStateChange() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "0a12", 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Source != StateHistorySourcePoll || len(entries[0].State) != 0 {
		t.Errorf("entries = %+v", entries)
	}

	if err := repo.RecordStateChange(ctx, "", nil, ""); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("RecordStateChange(empty address) error = %v, want ErrInvalidAddress", err)
	}
	if _, err := repo.GetHistory(ctx, "", 1); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("GetHistory(empty address) error = %v, want ErrInvalidAddress", err)
	}
}

func TestGetHistory_OrderAndLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteStateHistoryRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	insertStateHistoryRow(t, db, "0a12", `{"WindSpeed":"1"}`, base)
	insertStateHistoryRow(t, db, "0a12", `{"WindSpeed":"2"}`, base.Add(time.Minute))
	insertStateHistoryRow(t, db, "0a12", `{"WindSpeed":"3"}`, base.Add(2*time.Minute))
	insertStateHistoryRow(t, db, "other", `{"WindSpeed":"4"}`, base)

	entries, err := repo.GetHistory(ctx, "0a12", 2)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].State[WindSpeed] != "3" || entries[1].State[WindSpeed] != "2" {
		t.Errorf("order = %v, %v; want newest first", entries[0].State, entries[1].State)
	}
}

func TestPruneHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteStateHistoryRepository(db)
	ctx := context.Background()

	insertStateHistoryRow(t, db, "0a12", `{}`, time.Now().Add(-48*time.Hour))
	insertStateHistoryRow(t, db, "0a12", `{}`, time.Now().Add(-time.Hour))

	n, err := repo.PruneHistory(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PruneHistory() error = %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	if _, err := repo.PruneHistory(ctx, 0); err == nil {
		t.Error("PruneHistory(0) expected error")
	}
}

func TestParseHistoryTimestamp(t *testing.T) {
	for _, v := range []string{"2026-03-01T09:00:00Z", "2026-03-01T09:00:00.123456789Z"} {
		if _, err := parseHistoryTimestamp(v); err != nil {
			t.Errorf("parseHistoryTimestamp(%q) error = %v", v, err)
		}
	}
	for _, v := range []string{"", "yesterday"} {
		if _, err := parseHistoryTimestamp(v); err == nil {
			t.Errorf("parseHistoryTimestamp(%q) expected error", v)
		}
	}
}
