package store

import (
	"context"
	"fmt"
)

// DefaultCategories are seeded by Migrate.
var DefaultCategories = []string{
	"Shelter",
	"Sleep System",
	"Backpack",
	"Cooking",
	"Water",
	"Clothing",
	"Footwear",
	"Navigation",
	"Electronics",
	"First Aid",
	"Hygiene",
	"Food",
	"Climbing",
	"Miscellaneous",
}

// Migrate creates the gear tables when missing and seeds the default
// categories. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationGearCategories,
		migrationGearImports,
		migrationGearItems,
		migrationIndexes,
	}

	for i, migration := range migrations {
		if _, err := s.db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	for _, name := range DefaultCategories {
		if _, err := s.db.Exec(ctx, seedCategory, name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}

	return nil
}

const migrationGearCategories = `
CREATE TABLE IF NOT EXISTS gear_categories (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migrationGearImports = `
CREATE TABLE IF NOT EXISTS gear_imports (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    items_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migrationGearItems = `
CREATE TABLE IF NOT EXISTS gear_items (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    gear_category_id BIGINT REFERENCES gear_categories(id),
    gear_import_id BIGINT REFERENCES gear_imports(id) ON DELETE SET NULL,
    name TEXT NOT NULL CHECK (name <> ''),
    brand TEXT,
    model TEXT,
    notes TEXT,
    weight NUMERIC(10,3) NOT NULL CHECK (weight >= 0),
    quantity INTEGER NOT NULL DEFAULT 1,
    consumable BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migrationIndexes = `
CREATE INDEX IF NOT EXISTS idx_gear_items_user_name ON gear_items(user_id, LOWER(name));
CREATE INDEX IF NOT EXISTS idx_gear_items_import ON gear_items(gear_import_id);
CREATE INDEX IF NOT EXISTS idx_gear_imports_user ON gear_imports(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_gear_categories_name ON gear_categories(LOWER(name));
`

const seedCategory = `INSERT INTO gear_categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
