package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// ============================================================================
// pgtype conversion Tests
// ============================================================================

func TestToPgText(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      string
	}{
		{"simple", "MSR", true, "MSR"},
		{"trimmed", "  Big Agnes ", true, "Big Agnes"},
		{"empty", "", false, ""},
		{"whitespace only", "   \t", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toPgText(tt.input)
			if got.Valid != tt.wantValid || got.String != tt.want {
				t.Errorf("toPgText(%q) = %+v, want valid=%v %q", tt.input, got, tt.wantValid, tt.want)
			}
		})
	}
}

func TestToPgTextPtr(t *testing.T) {
	if got := toPgTextPtr(nil); got.Valid {
		t.Errorf("toPgTextPtr(nil) = %+v, want invalid", got)
	}
	s := "Hubba"
	if got := toPgTextPtr(&s); !got.Valid || got.String != "Hubba" {
		t.Errorf("toPgTextPtr(&Hubba) = %+v", got)
	}
}

func TestToPgInt8(t *testing.T) {
	if got := toPgInt8(nil); got.Valid {
		t.Errorf("toPgInt8(nil) = %+v, want invalid", got)
	}
	id := int64(42)
	if got := toPgInt8(&id); !got.Valid || got.Int64 != 42 {
		t.Errorf("toPgInt8(&42) = %+v", got)
	}
}

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0, 0},
		{1.2, 1.2},
		{0.454, 0.454},
		{1.23456, 1.235},
		{1234.5, 1234.5},
	}

	for _, tt := range tests {
		got := toPgNumeric(tt.input)
		if !got.Valid {
			t.Errorf("toPgNumeric(%v) invalid", tt.input)
			continue
		}
		f, err := got.Float64Value()
		if err != nil || f.Float64 != tt.want {
			t.Errorf("toPgNumeric(%v) = %v (%v), want %v", tt.input, f.Float64, err, tt.want)
		}
	}

	if got := toPgNumericPtr(nil); got.Valid {
		t.Errorf("toPgNumericPtr(nil) = %+v, want invalid", got)
	}
}

// ============================================================================
// Error translation Tests
// ============================================================================

func TestTranslate(t *testing.T) {
	fk := &pgconn.PgError{
		Code:           "23503",
		Message:        `insert or update on table "gear_items" violates foreign key constraint "gear_items_gear_category_id_fkey"`,
		ConstraintName: "gear_items_gear_category_id_fkey",
	}
	err := translate("insert gear item", fk)

	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("translate() = %T, want *ConstraintError", err)
	}
	if ce.Constraint != "gear_items_gear_category_id_fkey" {
		t.Errorf("Constraint = %q", ce.Constraint)
	}
	if want := "insert gear item: " + fk.Message; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, fk) {
		t.Error("translated error does not unwrap to the PgError")
	}

	other := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	err = translate("update gear item", other)
	if errors.As(err, &ce) {
		t.Errorf("non-integrity error became ConstraintError: %v", err)
	}
	if !errors.Is(err, other) {
		t.Error("wrapped error does not unwrap to the PgError")
	}
}
