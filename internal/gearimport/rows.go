package gearimport

import (
	"context"
	"strings"
)

// candidate is a data row after mapping, unit conversion and category
// resolution. Optional fields are nil or "" when their column is unmapped
// or blank.
type candidate struct {
	Row      int
	Name     string
	Brand    string
	Model    string
	Notes    string
	WeightKg *float64
	Category *Category
}

func (c candidate) key() string {
	return strings.ToLower(c.Name)
}

// newItem returns the gear item a new row creates.
func (c candidate) newItem(userID string, batchID int64) GearItem {
	item := GearItem{
		UserID:   userID,
		ImportID: &batchID,
		Name:     c.Name,
		Brand:    c.Brand,
		Model:    c.Model,
		Notes:    c.Notes,
		Quantity: 1,
	}
	if c.WeightKg != nil {
		item.WeightKg = *c.WeightKg
	}
	if c.Category != nil {
		item.CategoryID = &c.Category.ID
	}
	return item
}

// update returns the fields a duplicate row overwrites: every mapped field
// with a value, except the name.
func (c candidate) update() GearUpdate {
	var u GearUpdate
	if c.Brand != "" {
		u.Brand = &c.Brand
	}
	if c.Model != "" {
		u.Model = &c.Model
	}
	if c.Notes != "" {
		u.Notes = &c.Notes
	}
	if c.WeightKg != nil {
		u.WeightKg = c.WeightKg
	}
	if c.Category != nil {
		u.CategoryID = &c.Category.ID
	}
	return u
}

// rowBuilder turns spreadsheet rows into candidates. The category cache
// lives for one preview or commit run.
type rowBuilder struct {
	cols     ColumnMap
	unit     WeightUnit
	resolver *CategoryResolver
	cache    CategoryCache
}

func newRowBuilder(store Store, sess *Session, cols ColumnMap) *rowBuilder {
	return &rowBuilder{
		cols:     cols,
		unit:     sess.WeightUnit,
		resolver: NewCategoryResolver(store, sess.UnknownCategories, sess.CategoryResolutions),
		cache:    make(CategoryCache),
	}
}

// nameOf returns the trimmed name cell of a row.
func (b *rowBuilder) nameOf(cells []string) string {
	col, ok := b.cols.Column(FieldName)
	if !ok {
		return ""
	}
	return cellAt(cells, col)
}

// build maps one row. Validation failures are RowErrors; store failures are
// returned as they are. Columns are applied in spreadsheet order.
func (b *rowBuilder) build(ctx context.Context, store Store, rowNum int, cells []string) (candidate, error) {
	c := candidate{Row: rowNum}
	var rawWeight, rawCategory string

	for _, col := range b.cols.Columns() {
		v := cellAt(cells, col)
		switch b.cols[col] {
		case FieldName:
			c.Name = v
		case FieldBrand:
			c.Brand = v
		case FieldModel:
			c.Model = v
		case FieldNotes:
			c.Notes = v
		case FieldWeight:
			rawWeight = v
		case FieldCategory:
			rawCategory = v
		}
	}

	if c.Name == "" {
		return c, RowError{Row: rowNum, Message: "name can't be blank"}
	}

	if rawWeight != "" {
		w, err := ParseWeight(rawWeight)
		if err != nil {
			return c, RowError{Row: rowNum, Message: err.Error()}
		}
		if w < 0 {
			return c, RowError{Row: rowNum, Message: "weight can't be negative"}
		}
		kg := ConvertWeight(w, b.unit)
		c.WeightKg = &kg
	}

	if rawCategory != "" {
		cat, err := b.resolver.WithStore(store).Resolve(ctx, rawCategory, b.cache)
		if err != nil {
			return c, err
		}
		c.Category = cat
	}

	return c, nil
}

func cellAt(cells []string, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
