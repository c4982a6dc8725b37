package gearimport

import (
	"errors"
	"maps"
	"slices"
	"testing"
)

// ============================================================================
// Field suggestion
// ============================================================================

func TestMatchField(t *testing.T) {
	tests := []struct {
		header string
		want   Field
	}{
		{"Name", FieldName},
		{"Item", FieldName},
		{"Gear item", FieldName},
		{"Brand", FieldBrand},
		{"Manufacturer", FieldBrand},
		{"Model", FieldModel},
		{"Version", FieldModel},
		{"Weight (g)", FieldWeight},
		{"Mass", FieldWeight},
		{"kg", FieldWeight},
		{"Category", FieldCategory},
		{"Type", FieldCategory},
		{"Notes", FieldNotes},
		{"Description", FieldNotes},
		{"Comments", FieldNotes},
		{"Qty", FieldSkip},
		{"", FieldSkip},
		// Earlier rules win: "Brand name" contains "name".
		{"Brand name", FieldName},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := MatchField(tt.header); got != tt.want {
				t.Errorf("MatchField(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestSuggestMapping(t *testing.T) {
	got := SuggestMapping([]string{"Item Name", "Weight (g)", "Item Type", "Qty", "Manufacturer"})

	want := map[Field]string{
		FieldName:     "Item Name",
		FieldBrand:    "Manufacturer",
		FieldModel:    "skip",
		FieldWeight:   "Weight (g)",
		FieldNotes:    "skip",
		FieldCategory: "skip",
	}
	if !maps.Equal(got, want) {
		t.Errorf("SuggestMapping() = %v, want %v", got, want)
	}
}

// ============================================================================
// Mapping parsing and validation
// ============================================================================

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{"name", FieldName, false},
		{" Weight ", FieldWeight, false},
		{"gear_category_id", FieldCategory, false},
		{"category_id", FieldCategory, false},
		{"description", FieldNotes, false},
		{"skip", "", true},
		{"color", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseField(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrMappingInvalid) {
					t.Fatalf("ParseField(%q) error = %v, want ErrMappingInvalid", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseField(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestValidateMapping(t *testing.T) {
	tests := []struct {
		name    string
		mapping map[Field]string
		wantErr bool
	}{
		{"name mapped", map[Field]string{FieldName: "Item Name"}, false},
		{"name missing", map[Field]string{FieldWeight: "Weight"}, true},
		{"name blank", map[Field]string{FieldName: "  "}, true},
		{"name skipped", map[Field]string{FieldName: "skip"}, true},
		{"name skipped uppercase", map[Field]string{FieldName: "SKIP"}, true},
		{"empty", map[Field]string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMapping(tt.mapping)
			if tt.wantErr && !errors.Is(err, ErrMappingInvalid) {
				t.Errorf("ValidateMapping() = %v, want ErrMappingInvalid", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateMapping() unexpected error: %v", err)
			}
		})
	}
}

func TestParseMapping_RejectsUnknownField(t *testing.T) {
	_, err := ParseMapping(map[string]string{"name": "Item", "colour": "Color"})
	if !errors.Is(err, ErrMappingInvalid) {
		t.Errorf("ParseMapping() = %v, want ErrMappingInvalid", err)
	}
}

// ============================================================================
// Column resolution
// ============================================================================

func TestBuildColumnMap(t *testing.T) {
	header := NewHeaderRow(rows{{"Item Name", "Weight (g)", "", "Category", "Notes"}}, 1)

	tests := []struct {
		name    string
		mapping map[Field]string
		want    ColumnMap
	}{
		{
			name:    "skip is dropped",
			mapping: map[Field]string{FieldName: "Item Name", FieldWeight: "skip"},
			want:    ColumnMap{0: FieldName},
		},
		{
			name: "positions follow the header",
			mapping: map[Field]string{
				FieldName:     "Item Name",
				FieldWeight:   "Weight (g)",
				FieldCategory: "Category",
				FieldNotes:    "Notes",
			},
			want: ColumnMap{0: FieldName, 1: FieldWeight, 3: FieldCategory, 4: FieldNotes},
		},
		{
			name:    "header not present",
			mapping: map[Field]string{FieldName: "Item Name", FieldBrand: "Brand"},
			want:    ColumnMap{0: FieldName},
		},
		{
			name:    "blank entries ignored",
			mapping: map[Field]string{FieldName: "Item Name", FieldModel: ""},
			want:    ColumnMap{0: FieldName},
		},
		{
			name:    "first field in order keeps a shared column",
			mapping: map[Field]string{FieldName: "Item Name", FieldNotes: "Item Name"},
			want:    ColumnMap{0: FieldName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildColumnMap(header, tt.mapping)
			if !maps.Equal(got, tt.want) {
				t.Errorf("BuildColumnMap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumnMap_Columns(t *testing.T) {
	m := ColumnMap{4: FieldNotes, 0: FieldName, 2: FieldWeight}

	if got := m.Columns(); !slices.Equal(got, []int{0, 2, 4}) {
		t.Errorf("Columns() = %v, want [0 2 4]", got)
	}
	if col, ok := m.Column(FieldWeight); !ok || col != 2 {
		t.Errorf("Column(weight) = %d, %v; want 2, true", col, ok)
	}
	if _, ok := m.Column(FieldBrand); ok {
		t.Error("Column(brand) found, want missing")
	}
}
