package spreadsheet

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// =============================================================================
// Format selection
// =============================================================================

func TestSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"gear.csv", true},
		{"gear.CSV", true},
		{"gear.xls", true},
		{"gear.xlsx", true},
		{"Gear List.XLSX", true},
		{"gear.numbers", false},
		{"gear.txt", false},
		{"gear", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Supported(tt.name); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOpen_UnknownFileType(t *testing.T) {
	path := writeFile(t, "upload_1", []byte("Name\nTent\n"))

	_, err := Open(path, "gear.ods")
	if !errors.Is(err, ErrUnknownFileType) {
		t.Fatalf("Open() error = %v, want ErrUnknownFileType", err)
	}
	if got := err.Error(); !strings.Contains(strings.ToLower(got), "unknown file type") {
		t.Errorf("error %q should mention unknown file type", got)
	}
}

// The on-disk name is irrelevant, only the uploaded name selects the decoder.
func TestOpen_UsesOriginalName(t *testing.T) {
	path := writeFile(t, "42_1700000000.tmp", []byte("Name,Weight\nTent,1.2\n"))

	sheet, err := Open(path, "list.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if sheet.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", sheet.RowCount())
	}
}

// =============================================================================
// CSV
// =============================================================================

func TestOpen_CSV(t *testing.T) {
	data := "Name,Weight,Category\nRope,0.5,Climbing\n,,\nTent,1.2,Shelter\n"
	path := writeFile(t, "gear.csv", []byte(data))

	sheet, err := Open(path, "gear.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if sheet.RowCount() != 4 {
		t.Fatalf("RowCount() = %d, want 4", sheet.RowCount())
	}

	tests := []struct {
		row  int
		want []string
	}{
		{1, []string{"Name", "Weight", "Category"}},
		{2, []string{"Rope", "0.5", "Climbing"}},
		{3, []string{"", "", ""}},
		{4, []string{"Tent", "1.2", "Shelter"}},
		{0, nil},
		{5, nil},
	}
	for _, tt := range tests {
		if got := sheet.Row(tt.row); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Row(%d) = %q, want %q", tt.row, got, tt.want)
		}
	}
}

func TestOpen_CSV_RaggedRows(t *testing.T) {
	path := writeFile(t, "gear.csv", []byte("Name,Weight\nTent\nStove,0.3,extra\n"))

	sheet, err := Open(path, "gear.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := len(sheet.Row(2)); got != 1 {
		t.Errorf("len(Row(2)) = %d, want 1", got)
	}
	if got := len(sheet.Row(3)); got != 3 {
		t.Errorf("len(Row(3)) = %d, want 3", got)
	}
}

func TestOpen_CSV_UTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Weight\nTent,1.2\n")...)
	path := writeFile(t, "gear.csv", data)

	sheet, err := Open(path, "gear.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := sheet.Row(1)[0]; got != "Name" {
		t.Errorf("first header = %q, want %q (BOM should be stripped)", got, "Name")
	}
}

func TestOpen_CSV_UTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.String("Name,Weight\nSchlafsack Daune,0.9\n")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := writeFile(t, "gear.csv", []byte(data))

	sheet, err := Open(path, "gear.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	want := []string{"Schlafsack Daune", "0.9"}
	if got := sheet.Row(2); !reflect.DeepEqual(got, want) {
		t.Errorf("Row(2) = %q, want %q", got, want)
	}
}

func TestOpen_CSV_InvalidUTF8(t *testing.T) {
	data := []byte("Name\nTent\xff\n")
	path := writeFile(t, "gear.csv", data)

	sheet, err := Open(path, "gear.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := sheet.Row(2)[0]; got != "Tent\uFFFD" {
		t.Errorf("Row(2)[0] = %q, want replacement character", got)
	}
}

func TestOpen_CSV_TrailingBlankRows(t *testing.T) {
	path := writeFile(t, "gear.csv", []byte("Name\nTent\n,\n , \n"))

	sheet, err := Open(path, "gear.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if sheet.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", sheet.RowCount())
	}
}

func TestOpen_CSV_Empty(t *testing.T) {
	path := writeFile(t, "gear.csv", nil)

	sheet, err := Open(path, "gear.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if sheet.RowCount() != 0 {
		t.Errorf("RowCount() = %d, want 0", sheet.RowCount())
	}
	if sheet.Row(1) != nil {
		t.Error("Row(1) on empty sheet should be nil")
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tent", "Tent"},
		{`="00123"`, "00123"},
		{` ="007" `, "007"},
		{`=SUM(A1)`, "=SUM(A1)"},
		{`2" tape`, `2" tape`},
		{"  padded  ", "  padded  "},
	}

	for _, tt := range tests {
		if got := cleanCell(tt.in); got != tt.want {
			t.Errorf("cleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// XLSX / XLS
// =============================================================================

func TestOpen_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"My gear list"},
		{"Item Name", "Brand", "Weight (g)"},
		{"Tent", "Big Agnes", 1200},
		{"Stove", "MSR", 83},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "gear.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	sheet, err := Open(path, "gear.xlsx")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if sheet.RowCount() != 4 {
		t.Fatalf("RowCount() = %d, want 4", sheet.RowCount())
	}
	if want := []string{"Item Name", "Brand", "Weight (g)"}; !reflect.DeepEqual(sheet.Row(2), want) {
		t.Errorf("Row(2) = %q, want %q", sheet.Row(2), want)
	}
	if want := []string{"Stove", "MSR", "83"}; !reflect.DeepEqual(sheet.Row(4), want) {
		t.Errorf("Row(4) = %q, want %q", sheet.Row(4), want)
	}
}

func TestOpen_CorruptWorkbook(t *testing.T) {
	for _, name := range []string{"gear.xlsx", "gear.xls"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, []byte("this is not a workbook"))
			_, err := Open(path, name)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("Open(%s) error = %v, want ErrMalformed", name, err)
			}
			if !strings.Contains(err.Error(), "malformed workbook") {
				t.Errorf("Open(%s) error = %q, want it to mention malformed workbook", name, err)
			}
		})
	}
}

func TestOpen_MissingFileIsNotMalformed(t *testing.T) {
	for _, name := range []string{"gear.csv", "gear.xlsx", "gear.xls"} {
		t.Run(name, func(t *testing.T) {
			_, err := Open(filepath.Join(t.TempDir(), "missing"+Ext(name)), name)
			if !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("Open(%s) error = %v, want fs.ErrNotExist", name, err)
			}
			if errors.Is(err, ErrMalformed) {
				t.Errorf("Open(%s) missing file reported as malformed: %v", name, err)
			}
		})
	}
}

func TestNewSheet(t *testing.T) {
	sheet := NewSheet([][]string{{"Name"}, {"Tent"}, {""}})
	if sheet.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2", sheet.RowCount())
	}
}
