package spreadsheet

import (
	"fmt"

	"github.com/extrame/xls"
)

// readXLS decodes the first worksheet of a legacy BIFF workbook.
// The decoder panics on some malformed files; that is reported as an error.
func readXLS(path string) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, malformed("malformed workbook", fmt.Errorf("decoder panic: %v", r))
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, malformed("malformed workbook", err)
	}
	if wb.NumSheets() == 0 {
		return nil, malformed("malformed workbook", errNoWorksheet)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, malformed("malformed workbook", errNoWorksheet)
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}

		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}

	return rows, nil
}
