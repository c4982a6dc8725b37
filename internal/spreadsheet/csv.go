package spreadsheet

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readCSV decodes a comma separated file. A UTF-8 or UTF-16 byte order mark
// selects the encoding; without one the input is read as UTF-8 and invalid
// bytes become U+FFFD.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	r := csv.NewReader(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed("invalid csv", err)
		}

		row := make([]string, len(record))
		for i, cell := range record {
			row[i] = cleanCell(cell)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// cleanCell strips the ="..." wrapper Excel writes to keep leading zeros and
// replaces any invalid UTF-8 left after decoding.
func cleanCell(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")

	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, `="`) && strings.HasSuffix(trimmed, `"`) && len(trimmed) >= 3 {
		return trimmed[2 : len(trimmed)-1]
	}
	return s
}
