package gearimport

import "strings"

// DefaultHeaderScanRows is how many leading rows DetectHeader examines.
const DefaultHeaderScanRows = 10

// SheetReader is row access to a decoded spreadsheet. Rows are 1-based.
type SheetReader interface {
	Row(i int) []string
	RowCount() int
}

// HeaderRow is the spreadsheet row holding column names. Cells keeps the
// trimmed value of every column, blank ones included, so a position in Cells
// is a position in every data row.
type HeaderRow struct {
	Row   int      `json:"row"`
	Cells []string `json:"cells"`
}

// NewHeaderRow reads row i of sheet as a header.
func NewHeaderRow(sheet SheetReader, i int) HeaderRow {
	raw := sheet.Row(i)
	cells := make([]string, len(raw))
	for c, v := range raw {
		cells[c] = strings.TrimSpace(v)
	}
	return HeaderRow{Row: i, Cells: cells}
}

// Names returns the non-empty header names in column order.
func (h HeaderRow) Names() []string {
	names := make([]string, 0, len(h.Cells))
	for _, c := range h.Cells {
		if c != "" {
			names = append(names, c)
		}
	}
	return names
}

// Index returns the column of the first header equal to name, or -1.
func (h HeaderRow) Index(name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, c := range h.Cells {
		if c == name {
			return i
		}
	}
	return -1
}

// DetectHeader picks the row with the most non-empty cells among the first
// maxRows rows. Ties go to the earliest row. An empty sheet yields row 1
// with no names.
func DetectHeader(sheet SheetReader, maxRows int) HeaderRow {
	if maxRows <= 0 {
		maxRows = DefaultHeaderScanRows
	}
	last := min(sheet.RowCount(), maxRows)

	best, bestCount := 1, -1
	for i := 1; i <= last; i++ {
		if n := countNonEmpty(sheet.Row(i)); n > bestCount {
			best, bestCount = i, n
		}
	}

	return NewHeaderRow(sheet, best)
}

func countNonEmpty(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}
