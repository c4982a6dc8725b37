package gearimport

import "context"

// Store is the persistence the import pipeline needs. Lookup methods return
// (nil, nil) when nothing matches.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	FindCategoryByName(ctx context.Context, name string) (*Category, error)
	FindCategoryByNameFold(ctx context.Context, name string) (*Category, error)
	FindCategoryByID(ctx context.Context, id int64) (*Category, error)
	// CreateOrGetCategory returns the category named exactly name, creating
	// it when missing. Safe to call repeatedly.
	CreateOrGetCategory(ctx context.Context, name string) (Category, error)

	// GearNames maps the lowercased names of the user's items to an item id.
	// When several items share a name, the lowest id is returned.
	GearNames(ctx context.Context, userID string) (map[string]int64, error)
	CreateGearItem(ctx context.Context, item GearItem) (GearItem, error)
	UpdateGearItem(ctx context.Context, userID string, id int64, upd GearUpdate) error

	CreateImportBatch(ctx context.Context, userID, filename string) (ImportBatch, error)
	FinalizeImportBatch(ctx context.Context, batchID int64, itemsCount int) error
	ListImportBatches(ctx context.Context, userID string) ([]ImportBatch, error)
	// RevertImportBatch deletes the batch's items and the batch atomically
	// and returns the number of items removed. A batch that is missing or
	// owned by another user yields ErrBatchNotFound.
	RevertImportBatch(ctx context.Context, userID string, batchID int64) (int64, error)

	// InTx runs fn in a transaction. Called on a transactional Store it
	// opens a nested one (a savepoint). Returning an error rolls back.
	InTx(ctx context.Context, fn func(Store) error) error
}
