package gearimport

import (
	"fmt"
	"slices"
	"strings"
)

// ColumnMap assigns gear fields to spreadsheet column positions (0-based).
type ColumnMap map[int]Field

// Columns returns the mapped positions in ascending order.
func (m ColumnMap) Columns() []int {
	cols := make([]int, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

// Column returns the position mapped to f.
func (m ColumnMap) Column(f Field) (int, bool) {
	for _, c := range m.Columns() {
		if m[c] == f {
			return c, true
		}
	}
	return 0, false
}

// ParseMapping converts submitted form values (field name to header name)
// into a field mapping. Unknown field names are rejected.
func ParseMapping(form map[string]string) (map[Field]string, error) {
	mapping := make(map[Field]string, len(form))
	for key, header := range form {
		f, err := ParseField(key)
		if err != nil {
			return nil, err
		}
		mapping[f] = strings.TrimSpace(header)
	}
	return mapping, nil
}

// ValidateMapping requires the name field to be mapped to a real header.
func ValidateMapping(mapping map[Field]string) error {
	if isUnmapped(mapping[FieldName]) {
		return fmt.Errorf("%w: the name field must be mapped to a column", ErrMappingInvalid)
	}
	return nil
}

// BuildColumnMap resolves header names to column positions. Blank and
// "skip" entries are dropped, as are names not present in the header row.
// When two fields name the same column, the field listed first in Fields
// keeps it.
func BuildColumnMap(header HeaderRow, mapping map[Field]string) ColumnMap {
	cols := make(ColumnMap, len(mapping))
	for _, f := range Fields {
		name, ok := mapping[f]
		if !ok || isUnmapped(name) {
			continue
		}
		idx := header.Index(name)
		if idx < 0 {
			continue
		}
		if _, taken := cols[idx]; taken {
			continue
		}
		cols[idx] = f
	}
	return cols
}

func isUnmapped(header string) bool {
	h := strings.TrimSpace(header)
	return h == "" || strings.EqualFold(h, string(FieldSkip))
}
