package spreadsheet

import (
	"errors"

	"github.com/xuri/excelize/v2"
)

var errNoWorksheet = errors.New("workbook has no worksheets")

// readXLSX returns the formatted cell values of the first worksheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, malformed("malformed workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, malformed("malformed workbook", errNoWorksheet)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, malformed("malformed workbook", err)
	}
	return rows, nil
}
