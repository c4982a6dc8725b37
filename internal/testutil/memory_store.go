// Package testutil provides in-memory implementations of the import
// persistence interfaces for tests.
package testutil

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/trailpack/internal/gearimport"
)

type state struct {
	categories map[int64]gearimport.Category
	items      map[int64]gearimport.GearItem
	batches    map[int64]gearimport.ImportBatch

	nextCategory int64
	nextItem     int64
	nextBatch    int64
}

func (s *state) clone() *state {
	c := *s
	c.categories = maps.Clone(s.categories)
	c.items = make(map[int64]gearimport.GearItem, len(s.items))
	for id, it := range s.items {
		c.items[id] = cloneItem(it)
	}
	c.batches = maps.Clone(s.batches)
	return &c
}

func cloneItem(it gearimport.GearItem) gearimport.GearItem {
	if it.CategoryID != nil {
		v := *it.CategoryID
		it.CategoryID = &v
	}
	if it.ImportID != nil {
		v := *it.ImportID
		it.ImportID = &v
	}
	return it
}

// MemoryStore is a gearimport.Store backed by maps. InTx snapshots the state
// and restores it when fn fails, so nested transactions behave like
// savepoints.
type MemoryStore struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time

	// FailCreate, when set, is consulted before every CreateGearItem.
	FailCreate func(item gearimport.GearItem) error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	st := &state{
		categories: make(map[int64]gearimport.Category),
		items:      make(map[int64]gearimport.GearItem),
		batches:    make(map[int64]gearimport.ImportBatch),
	}
	return &MemoryStore{st: st, now: time.Now}
}

// SeedCategories adds categories and returns them with their ids.
func (m *MemoryStore) SeedCategories(names ...string) []gearimport.Category {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]gearimport.Category, 0, len(names))
	for _, n := range names {
		out = append(out, m.addCategory(n))
	}
	return out
}

// SeedItem stores item as is, assigning an id.
func (m *MemoryStore) SeedItem(item gearimport.GearItem) gearimport.GearItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addItem(item)
}

// Items returns the user's items ordered by id.
func (m *MemoryStore) Items(userID string) []gearimport.GearItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []gearimport.GearItem
	for _, id := range slices.Sorted(maps.Keys(m.st.items)) {
		if it := m.st.items[id]; it.UserID == userID {
			out = append(out, cloneItem(it))
		}
	}
	return out
}

// Item returns the item with id.
func (m *MemoryStore) Item(id int64) (gearimport.GearItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.st.items[id]
	return cloneItem(it), ok
}

// BatchCount returns the number of stored import batches.
func (m *MemoryStore) BatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.batches)
}

func (m *MemoryStore) addCategory(name string) gearimport.Category {
	st := m.st
	st.nextCategory++
	c := gearimport.Category{ID: st.nextCategory, Name: name}
	st.categories[c.ID] = c
	return c
}

func (m *MemoryStore) addItem(item gearimport.GearItem) gearimport.GearItem {
	st := m.st
	st.nextItem++
	item.ID = st.nextItem
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	st.items[item.ID] = cloneItem(item)
	return item
}

func (m *MemoryStore) sortedCategories() []gearimport.Category {
	cats := slices.Collect(maps.Values(m.st.categories))
	slices.SortFunc(cats, func(a, b gearimport.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return cats
}

func (m *MemoryStore) ListCategories(context.Context) ([]gearimport.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedCategories(), nil
}

func (m *MemoryStore) FindCategoryByName(_ context.Context, name string) (*gearimport.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.st.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) FindCategoryByNameFold(_ context.Context, name string) (*gearimport.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *gearimport.Category
	for _, c := range m.st.categories {
		if strings.EqualFold(c.Name, name) && (found == nil || c.ID < found.ID) {
			found = &c
		}
	}
	return found, nil
}

func (m *MemoryStore) FindCategoryByID(_ context.Context, id int64) (*gearimport.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.st.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryStore) CreateOrGetCategory(_ context.Context, name string) (gearimport.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.st.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return m.addCategory(name), nil
}

func (m *MemoryStore) GearNames(_ context.Context, userID string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make(map[string]int64)
	for id, it := range m.st.items {
		if it.UserID != userID {
			continue
		}
		key := strings.ToLower(it.Name)
		if cur, ok := names[key]; !ok || id < cur {
			names[key] = id
		}
	}
	return names, nil
}

func (m *MemoryStore) CreateGearItem(_ context.Context, item gearimport.GearItem) (gearimport.GearItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		if err := m.FailCreate(item); err != nil {
			return gearimport.GearItem{}, err
		}
	}
	if item.CategoryID != nil {
		if _, ok := m.st.categories[*item.CategoryID]; !ok {
			return gearimport.GearItem{}, fmt.Errorf("insert gear item: violates foreign key constraint on category %d", *item.CategoryID)
		}
	}
	return m.addItem(item), nil
}

func (m *MemoryStore) UpdateGearItem(_ context.Context, userID string, id int64, upd gearimport.GearUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.st.items[id]
	if !ok || it.UserID != userID {
		return fmt.Errorf("update gear item %d: not found", id)
	}
	if upd.Brand != nil {
		it.Brand = *upd.Brand
	}
	if upd.Model != nil {
		it.Model = *upd.Model
	}
	if upd.Notes != nil {
		it.Notes = *upd.Notes
	}
	if upd.WeightKg != nil {
		it.WeightKg = *upd.WeightKg
	}
	if upd.CategoryID != nil {
		v := *upd.CategoryID
		it.CategoryID = &v
	}
	m.st.items[id] = it
	return nil
}

func (m *MemoryStore) CreateImportBatch(_ context.Context, userID, filename string) (gearimport.ImportBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.st
	st.nextBatch++
	b := gearimport.ImportBatch{
		ID:        st.nextBatch,
		UserID:    userID,
		Filename:  filename,
		CreatedAt: m.now(),
	}
	st.batches[b.ID] = b
	return b, nil
}

func (m *MemoryStore) FinalizeImportBatch(_ context.Context, batchID int64, itemsCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.st.batches[batchID]
	if !ok {
		return gearimport.ErrBatchNotFound
	}
	b.ItemsCount = itemsCount
	m.st.batches[batchID] = b
	return nil
}

func (m *MemoryStore) ListImportBatches(_ context.Context, userID string) ([]gearimport.ImportBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []gearimport.ImportBatch
	for _, b := range m.st.batches {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b gearimport.ImportBatch) int {
		return int(b.ID - a.ID)
	})
	return out, nil
}

func (m *MemoryStore) RevertImportBatch(_ context.Context, userID string, batchID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.st
	b, ok := st.batches[batchID]
	if !ok || b.UserID != userID {
		return 0, gearimport.ErrBatchNotFound
	}
	var removed int64
	for id, it := range st.items {
		if it.ImportID != nil && *it.ImportID == batchID {
			delete(st.items, id)
			removed++
		}
	}
	delete(st.batches, batchID)
	return removed, nil
}

// InTx runs fn against the same store and restores the previous state when
// fn returns an error.
func (m *MemoryStore) InTx(_ context.Context, fn func(gearimport.Store) error) error {
	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

var _ gearimport.Store = (*MemoryStore)(nil)
