package migrations

import (
	"context"
	"testing"

	"github.com/nerrad567/nexhome-core/internal/infrastructure/config"
	"github.com/nerrad567/nexhome-core/internal/infrastructure/database"
)

func TestSchemaAppliesAndRollsBack(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.Migrate(ctx, FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, table := range []string{"devices", "state_history"} {
		var count int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&count); err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if count != 1 {
			t.Errorf("table %s missing after migrate", table)
		}
	}

	for range 2 {
		if err := db.MigrateDown(ctx, FS); err != nil {
			t.Fatalf("MigrateDown() error = %v", err)
		}
	}
	if n, err := db.PendingCount(ctx, FS); err != nil || n != 2 {
		t.Errorf("PendingCount() = %d, %v; want 2, nil", n, err)
	}
}
