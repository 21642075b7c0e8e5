package device

import (
	"context"
	"time"
)

// State history source values.
const (
	StateHistorySourcePoll    = "poll"
	StateHistorySourceCommand = "command"
)

// StateHistoryEntry is one stored Record snapshot.
//
// Entries give a local audit trail even when InfluxDB is disabled or
// unreachable.
type StateHistoryEntry struct {
	ID        int64             `json:"id"`
	Address   string            `json:"address"`
	State     map[string]string `json:"state"`
	Source    string            `json:"source"`
	CreatedAt time.Time         `json:"created_at"`
}

// StateHistoryRepository stores and retrieves device record history.
//
// Implementations must be safe for concurrent use and store UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange stores a snapshot of record for the device at address.
	RecordStateChange(ctx context.Context, address string, record *Record, source string) error

	// GetHistory returns up to limit entries for address, newest first.
	GetHistory(ctx context.Context, address string, limit int) ([]StateHistoryEntry, error)
}
