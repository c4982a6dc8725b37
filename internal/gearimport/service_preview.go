package gearimport

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/trailpack/internal/logging"
)

// RowStatus classifies a previewed row.
type RowStatus string

const (
	RowNew       RowStatus = "new"
	RowDuplicate RowStatus = "duplicate"
	RowInvalid   RowStatus = "invalid"
)

// PreviewRow is one data row as it would be imported.
type PreviewRow struct {
	Row        int       `json:"row"`
	Status     RowStatus `json:"status"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand,omitempty"`
	Model      string    `json:"model,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	WeightKg   *float64  `json:"weight_kg,omitempty"`
	Category   *Category `json:"category,omitempty"`
	ExistingID int64     `json:"existing_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Preview is the classification of every data row.
type Preview struct {
	SessionID      string       `json:"session_id"`
	Filename       string       `json:"filename"`
	WeightUnit     WeightUnit   `json:"weight_unit"`
	Rows           []PreviewRow `json:"rows"`
	NewCount       int          `json:"new_count"`
	DuplicateCount int          `json:"duplicate_count"`
	InvalidCount   int          `json:"invalid_count"`
	EmptyRows      int          `json:"empty_rows"`
	NamelessRows   int          `json:"nameless_rows"`
}

// Preview applies mapping, category resolution and unit conversion to every
// row and classifies each as new or duplicate. Nothing is written.
func (s *Service) Preview(ctx context.Context, userID, sessionID string) (*Preview, error) {
	sess, sheet, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkReadyForRows(sess); err != nil {
		return nil, err
	}

	header := NewHeaderRow(sheet, sess.HeaderRow)
	cols := BuildColumnMap(header, sess.Mapping)
	if _, ok := cols.Column(FieldName); !ok {
		return nil, fmt.Errorf("%w: name column not found in header row %d", ErrMappingInvalid, header.Row)
	}

	owned, err := s.store.GearNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load gear names: %w", err)
	}
	seen := make(map[string]bool)

	builder := newRowBuilder(s.store, sess, cols)
	p := &Preview{
		SessionID:  sess.ID,
		Filename:   sess.Filename,
		WeightUnit: sess.WeightUnit,
	}

	for i := header.Row + 1; i <= sheet.RowCount(); i++ {
		cells := sheet.Row(i)
		if isBlankRow(cells) {
			p.EmptyRows++
			continue
		}
		if builder.nameOf(cells) == "" {
			p.NamelessRows++
			continue
		}

		c, err := builder.build(ctx, s.store, i, cells)
		row := previewRow(c)
		existingID, isOwned := owned[c.key()]

		var rowErr RowError
		switch {
		case errors.As(err, &rowErr):
			row.Status = RowInvalid
			row.Error = rowErr.Message
			p.InvalidCount++
		case err != nil:
			return nil, err
		case isOwned:
			row.Status = RowDuplicate
			row.ExistingID = existingID
			p.DuplicateCount++
		case seen[c.key()]:
			row.Status = RowDuplicate
			p.DuplicateCount++
		case c.WeightKg == nil:
			row.Status = RowInvalid
			row.Error = "weight can't be blank"
			p.InvalidCount++
		default:
			row.Status = RowNew
			p.NewCount++
			seen[c.key()] = true
		}

		p.Rows = append(p.Rows, row)
	}

	sess.Step = StepPreviewed
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "user_id", userID, "session_id", sess.ID).Info("import previewed",
		"new", p.NewCount,
		"duplicates", p.DuplicateCount,
		"invalid", p.InvalidCount,
		"empty_rows", p.EmptyRows,
	)

	return p, nil
}

func previewRow(c candidate) PreviewRow {
	return PreviewRow{
		Row:      c.Row,
		Name:     c.Name,
		Brand:    c.Brand,
		Model:    c.Model,
		Notes:    c.Notes,
		WeightKg: c.WeightKg,
		Category: c.Category,
	}
}

func checkReadyForRows(sess *Session) error {
	if sess.Step == StepCategoriesUnresolved {
		return fmt.Errorf("%w: %d values need a decision", ErrCategoriesUnresolved, len(sess.UnknownCategories))
	}
	if !sess.Step.readyForRows() {
		return fmt.Errorf("%w: mapping not submitted", ErrInvalidStep)
	}
	return nil
}
