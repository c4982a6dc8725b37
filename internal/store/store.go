// Package store persists gear categories, gear items and import batches in
// PostgreSQL. Store implements gearimport.Store.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/trailpack/internal/gearimport"
)

// DBTX is the query surface shared by a pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store runs queries against a pool, or inside a transaction when created
// by InTx.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX

	tx         pgx.Tx
	savepoints *int
}

// New creates a Store over pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// InTx runs fn in a transaction. Inside a transaction each call opens a
// savepoint so a failing fn only undoes its own writes.
func (s *Store) InTx(ctx context.Context, fn func(gearimport.Store) error) error {
	if s.tx != nil {
		return s.inSavepoint(ctx, fn)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(&Store{db: tx, tx: tx, savepoints: new(int)}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) inSavepoint(ctx context.Context, fn func(gearimport.Store) error) error {
	*s.savepoints++
	name := fmt.Sprintf("sp_%d", *s.savepoints)

	if _, err := s.tx.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(s); err != nil {
		if _, rbErr := s.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback savepoint: %w", rbErr))
		}
		return err
	}

	if _, err := s.tx.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// ============================================================================
// Categories
// ============================================================================

func (s *Store) ListCategories(ctx context.Context) ([]gearimport.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM gear_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (gearimport.Category, error) {
		var c gearimport.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

func (s *Store) findCategory(ctx context.Context, query string, arg any) (*gearimport.Category, error) {
	var c gearimport.Category
	err := s.db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) FindCategoryByName(ctx context.Context, name string) (*gearimport.Category, error) {
	c, err := s.findCategory(ctx, `SELECT id, name FROM gear_categories WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return c, nil
}

func (s *Store) FindCategoryByNameFold(ctx context.Context, name string) (*gearimport.Category, error) {
	c, err := s.findCategory(ctx,
		`SELECT id, name FROM gear_categories WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return c, nil
}

func (s *Store) FindCategoryByID(ctx context.Context, id int64) (*gearimport.Category, error) {
	c, err := s.findCategory(ctx, `SELECT id, name FROM gear_categories WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// CreateOrGetCategory inserts name or returns the existing row. The no-op
// update makes RETURNING yield the existing row on conflict.
func (s *Store) CreateOrGetCategory(ctx context.Context, name string) (gearimport.Category, error) {
	var c gearimport.Category
	err := s.db.QueryRow(ctx, `
		INSERT INTO gear_categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		return gearimport.Category{}, translate("create category", err)
	}
	return c, nil
}

// ============================================================================
// Gear items
// ============================================================================

func (s *Store) GearNames(ctx context.Context, userID string) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (LOWER(name)) LOWER(name), id
		FROM gear_items
		WHERE user_id = $1
		ORDER BY LOWER(name), id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list gear names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]int64)
	for rows.Next() {
		var (
			name string
			id   int64
		)
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan gear name: %w", err)
		}
		names[name] = id
	}
	return names, rows.Err()
}

func (s *Store) CreateGearItem(ctx context.Context, item gearimport.GearItem) (gearimport.GearItem, error) {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO gear_items (
			user_id, gear_category_id, gear_import_id, name, brand, model, notes,
			weight, quantity, consumable
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		item.UserID,
		toPgInt8(item.CategoryID),
		toPgInt8(item.ImportID),
		strings.TrimSpace(item.Name),
		toPgText(item.Brand),
		toPgText(item.Model),
		toPgText(item.Notes),
		toPgNumeric(item.WeightKg),
		item.Quantity,
		item.Consumable,
	).Scan(&item.ID)
	if err != nil {
		return gearimport.GearItem{}, translate("insert gear item", err)
	}
	return item, nil
}

// UpdateGearItem overwrites the non-nil fields of upd. The name and the
// item's import batch are never changed.
func (s *Store) UpdateGearItem(ctx context.Context, userID string, id int64, upd gearimport.GearUpdate) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE gear_items SET
			brand = COALESCE($3, brand),
			model = COALESCE($4, model),
			notes = COALESCE($5, notes),
			weight = COALESCE($6, weight),
			gear_category_id = COALESCE($7, gear_category_id),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2`,
		id,
		userID,
		toPgTextPtr(upd.Brand),
		toPgTextPtr(upd.Model),
		toPgTextPtr(upd.Notes),
		toPgNumericPtr(upd.WeightKg),
		toPgInt8(upd.CategoryID),
	)
	if err != nil {
		return translate("update gear item", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update gear item %d: not found", id)
	}
	return nil
}

// ============================================================================
// Import batches
// ============================================================================

func (s *Store) CreateImportBatch(ctx context.Context, userID, filename string) (gearimport.ImportBatch, error) {
	b := gearimport.ImportBatch{UserID: userID, Filename: filename}
	err := s.db.QueryRow(ctx, `
		INSERT INTO gear_imports (user_id, filename) VALUES ($1, $2)
		RETURNING id, created_at`, userID, filename).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return gearimport.ImportBatch{}, translate("create import batch", err)
	}
	return b, nil
}

func (s *Store) FinalizeImportBatch(ctx context.Context, batchID int64, itemsCount int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE gear_imports SET items_count = $2, updated_at = NOW() WHERE id = $1`,
		batchID, itemsCount)
	if err != nil {
		return translate("finalize import batch", err)
	}
	if tag.RowsAffected() == 0 {
		return gearimport.ErrBatchNotFound
	}
	return nil
}

func (s *Store) ListImportBatches(ctx context.Context, userID string) ([]gearimport.ImportBatch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, filename, items_count, created_at
		FROM gear_imports
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (gearimport.ImportBatch, error) {
		var b gearimport.ImportBatch
		err := row.Scan(&b.ID, &b.UserID, &b.Filename, &b.ItemsCount, &b.CreatedAt)
		return b, err
	})
}

// RevertImportBatch deletes the batch's items and then the batch in one
// transaction. The batch row is locked first so concurrent reverts of the
// same batch serialise and the loser sees ErrBatchNotFound.
func (s *Store) RevertImportBatch(ctx context.Context, userID string, batchID int64) (int64, error) {
	var removed int64
	err := s.InTx(ctx, func(txs gearimport.Store) error {
		tx := txs.(*Store)

		var id int64
		err := tx.db.QueryRow(ctx, `
			SELECT id FROM gear_imports WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			batchID, userID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return gearimport.ErrBatchNotFound
		}
		if err != nil {
			return fmt.Errorf("lock import batch: %w", err)
		}

		tag, err := tx.db.Exec(ctx, `
			DELETE FROM gear_items WHERE gear_import_id = $1 AND user_id = $2`, batchID, userID)
		if err != nil {
			return translate("delete imported items", err)
		}
		removed = tag.RowsAffected()

		if _, err := tx.db.Exec(ctx, `DELETE FROM gear_imports WHERE id = $1`, batchID); err != nil {
			return translate("delete import batch", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

var _ gearimport.Store = (*Store)(nil)
