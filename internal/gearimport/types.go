package gearimport

import (
	"fmt"
	"strings"
	"time"
)

// Field is a gear attribute a spreadsheet column can be mapped to.
type Field string

const (
	FieldName     Field = "name"
	FieldBrand    Field = "brand"
	FieldModel    Field = "model"
	FieldWeight   Field = "weight"
	FieldNotes    Field = "notes"
	FieldCategory Field = "category"
	FieldSkip     Field = "skip"
)

// Fields lists the mappable fields in the order the mapping form shows them.
var Fields = []Field{FieldName, FieldBrand, FieldModel, FieldWeight, FieldNotes, FieldCategory}

// ParseField converts a submitted form key into a Field. "gear_category_id"
// and "description" are accepted as the form names of category and notes.
func ParseField(s string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "gear_category_id", "category_id":
		return FieldCategory, nil
	case "description":
		return FieldNotes, nil
	}
	for _, f := range Fields {
		if string(f) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown field %q", ErrMappingInvalid, s)
}

// WeightUnit is the unit weights are given in on the spreadsheet.
type WeightUnit string

const (
	UnitKilograms WeightUnit = "kg"
	UnitGrams     WeightUnit = "g"
	UnitPounds    WeightUnit = "lbs"
	UnitOunces    WeightUnit = "oz"
)

// WeightUnits lists the accepted units.
var WeightUnits = []WeightUnit{UnitKilograms, UnitGrams, UnitPounds, UnitOunces}

// DuplicateAction decides what Commit does with a row whose name the user
// already owns.
type DuplicateAction string

const (
	DuplicateSkip   DuplicateAction = "skip"
	DuplicateUpdate DuplicateAction = "update"
)

// ParseDuplicateAction accepts "skip" and "update". Empty means skip.
func ParseDuplicateAction(s string) (DuplicateAction, error) {
	switch a := DuplicateAction(strings.ToLower(strings.TrimSpace(s))); a {
	case "", DuplicateSkip:
		return DuplicateSkip, nil
	case DuplicateUpdate:
		return a, nil
	}
	return "", fmt.Errorf("%w: duplicate action %q", ErrInvalidDuplicateAction, s)
}

// Step is the wizard state of a session.
type Step string

const (
	StepUploaded             Step = "uploaded"
	StepMapped               Step = "mapped"
	StepCategoriesUnresolved Step = "categories_unresolved"
	StepCategoriesResolved   Step = "categories_resolved"
	StepPreviewed            Step = "previewed"
	StepCommitted            Step = "committed"
)

// readyForRows reports whether mapping and category resolution are complete.
func (s Step) readyForRows() bool {
	switch s {
	case StepMapped, StepCategoriesResolved, StepPreviewed:
		return true
	}
	return false
}

// Resolution values for unknown categories. Any other value is a category id.
const (
	ResolutionSkip   = "skip"
	ResolutionCreate = "create"
)

// Category is a gear category. Names are unique.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GearItem is a piece of gear owned by a user.
type GearItem struct {
	ID         int64   `json:"id"`
	UserID     string  `json:"user_id"`
	CategoryID *int64  `json:"category_id,omitempty"`
	ImportID   *int64  `json:"gear_import_id,omitempty"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand,omitempty"`
	Model      string  `json:"model,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	WeightKg   float64 `json:"weight"`
	Quantity   int     `json:"quantity"`
	Consumable bool    `json:"consumable"`
}

// GearUpdate carries the fields a duplicate row overwrites. Nil fields are
// left untouched.
type GearUpdate struct {
	Brand      *string
	Model      *string
	Notes      *string
	WeightKg   *float64
	CategoryID *int64
}

// Empty reports whether the update changes nothing.
func (u GearUpdate) Empty() bool {
	return u.Brand == nil && u.Model == nil && u.Notes == nil && u.WeightKg == nil && u.CategoryID == nil
}

// ImportBatch groups the items created by one commit.
type ImportBatch struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Filename   string    `json:"filename"`
	ItemsCount int       `json:"items_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// RevertResult reports a reverted batch.
type RevertResult struct {
	BatchID      int64 `json:"batch_id"`
	ItemsRemoved int64 `json:"items_removed"`
}
