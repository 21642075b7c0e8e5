package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists the gateway's device list.
type Repository interface {
	// GetByAddress returns ErrDeviceNotFound if no device has address.
	GetByAddress(ctx context.Context, address string) (*Device, error)

	// List returns all devices ordered by address.
	List(ctx context.Context) ([]Device, error)

	// Upsert inserts or updates one device.
	Upsert(ctx context.Context, d Device) error

	// ReplaceAll atomically swaps the stored list for devices.
	ReplaceAll(ctx context.Context, devices []Device) error
}

// SQLiteRepository implements Repository using the devices table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByAddress retrieves one device.
func (r *SQLiteRepository) GetByAddress(ctx context.Context, address string) (*Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT address, device_type_id, name, updated_at FROM devices WHERE address = ?`,
		address,
	)

	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by address: %w", err)
	}
	return &d, nil
}

// List retrieves all stored devices.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT address, device_type_id, name, updated_at FROM devices ORDER BY address`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Upsert inserts d or updates the stored row with the same address.
func (r *SQLiteRepository) Upsert(ctx context.Context, d Device) error {
	if err := ValidateDevice(d); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertQuery, upsertArgs(d)...); err != nil {
		return fmt.Errorf("upserting device %s: %w", d.Address, err)
	}
	return nil
}

// ReplaceAll deletes every stored device and inserts devices in one
// transaction. Invalid devices abort the whole replacement.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, devices []Device) error {
	for _, d := range devices {
		if err := ValidateDevice(d); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM devices"); err != nil {
		return fmt.Errorf("clearing devices: %w", err)
	}
	for _, d := range devices {
		if _, err := tx.ExecContext(ctx, upsertQuery, upsertArgs(d)...); err != nil {
			return fmt.Errorf("inserting device %s: %w", d.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing devices: %w", err)
	}
	return nil
}

const upsertQuery = `
	INSERT INTO devices (address, device_type_id, name, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		device_type_id = excluded.device_type_id,
		name = excluded.name,
		updated_at = excluded.updated_at`

func upsertArgs(d Device) []any {
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return []any{d.Address, d.DeviceTypeID, d.Name, updated.UTC().Format(time.RFC3339)}
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (Device, error) {
	var d Device
	var updatedAt string
	if err := s.Scan(&d.Address, &d.DeviceTypeID, &d.Name, &updatedAt); err != nil {
		return Device{}, err
	}
	ts, err := parseTimestamp(updatedAt)
	if err != nil {
		return Device{}, err
	}
	d.UpdatedAt = ts
	return d, nil
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	return ts, nil
}
