package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/resale-cli/internal/model"
)

// SheetName is the worksheet the dataset is written to.
const SheetName = "Products"

// WriteXLSX writes the dataset to a new workbook at path.
func WriteXLSX(path string, ds model.MasterDataset) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	for i, cells := range Rows(ds) {
		row := sheet.AddRow()
		for j, value := range cells {
			cell := row.AddCell()
			// Numeric columns stay numeric so spreadsheets can sort them.
			if i > 0 && (j == 0 || j == 2) {
				if n, err := strconv.Atoi(value); err == nil {
					cell.SetInt(n)
					continue
				}
			}
			cell.SetString(value)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// ReadXLSX reads the export sheet back as string rows.
func ReadXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	sheet, ok := f.Sheet[SheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", SheetName)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
