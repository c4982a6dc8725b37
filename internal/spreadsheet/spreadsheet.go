// Package spreadsheet decodes uploaded CSV, XLS and XLSX files into a
// uniform row/column view.
//
// A Sheet is fully materialised by Open and holds no file handle, so callers
// reopen the file for every wizard step instead of keeping readers alive
// across requests.
package spreadsheet

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrUnknownFileType is returned for any extension other than .csv, .xls and .xlsx.
var ErrUnknownFileType = errors.New("unknown file type")

// ErrMalformed is returned when the file content cannot be decoded in its
// format. The message names the format: "invalid csv" or "malformed workbook".
var ErrMalformed = errors.New("unreadable file")

type decoder func(path string) ([][]string, error)

var decoders = map[string]decoder{
	".csv":  readCSV,
	".xls":  readXLS,
	".xlsx": readXLSX,
}

// Sheet is the first worksheet of a decoded file.
type Sheet struct {
	rows [][]string
}

// Open decodes the file at path. The decoder is chosen from the extension of
// originalName, which is the name the user uploaded, not the on-disk name.
func Open(path, originalName string) (*Sheet, error) {
	ext := Ext(originalName)
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFileType, filepath.Base(originalName))
	}

	rows, err := decode(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", strings.TrimPrefix(ext, "."), err)
	}

	return &Sheet{rows: trimTrailingEmpty(rows)}, nil
}

// NewSheet wraps already decoded rows.
func NewSheet(rows [][]string) *Sheet {
	return &Sheet{rows: trimTrailingEmpty(rows)}
}

// Supported reports whether name has an extension Open can decode.
func Supported(name string) bool {
	_, ok := decoders[Ext(name)]
	return ok
}

// Ext returns the lowercase extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

// Row returns the cells of row i (1-based). Rows outside the sheet are nil.
func (s *Sheet) Row(i int) []string {
	if i < 1 || i > len(s.rows) {
		return nil
	}
	return s.rows[i-1]
}

// RowCount returns the index of the last non-empty row.
func (s *Sheet) RowCount() int {
	return len(s.rows)
}

// malformed marks a decoder failure as bad input. File system errors pass
// through unchanged.
func malformed(kind string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
}

// trimTrailingEmpty drops blank rows at the end of the sheet. XLSX writers
// commonly leave formatted but empty rows behind; interior blank rows are kept.
func trimTrailingEmpty(rows [][]string) [][]string {
	n := len(rows)
	for n > 0 && isBlank(rows[n-1]) {
		n--
	}
	return rows[:n]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
