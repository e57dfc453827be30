package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fotoclick/backend/pkg/migrate"
)

func TestOrderMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_order_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no order migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"public_id           UUID NOT NULL UNIQUE",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"order_item_id         BIGINT NOT NULL UNIQUE",
		"DROP TABLE IF EXISTS earnings",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartMigrationEnforcesUniquePhotoPerCart(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no cart migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "ux_cart_items_cart_photo") {
		t.Error("missing unique index on (cart_id, photo_id)")
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir failed: %v", err)
	}
}
