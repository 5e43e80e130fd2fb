package tabular

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/schema"
)

func (r *Reader) parseExcelFile(path string) ([]domain.ImportRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	sheet := sheets[0]

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	// GetRows trims trailing empty cells, so pad short rows back out to the
	// header width before the structural check.
	if len(records) > 0 {
		width := len(records[0])
		for i := 1; i < len(records); i++ {
			for len(records[i]) < width {
				records[i] = append(records[i], "")
			}
		}
	}

	header, data, err := splitRecords(records)
	if err != nil {
		return nil, err
	}

	hadKeyColumn := contains(header, schema.IdempotencyColumn)
	header, data, changed := ensureKeys(header, data)
	if changed {
		if err := writeBackExcel(f, path, sheet, header, data, hadKeyColumn); err != nil {
			return nil, err
		}
	}

	return buildRows(header, data)
}

// writeBackExcel saves the keyed rows into the workbook in place, mirroring
// the csv write-back. When the key column is new it is inserted as column A.
func writeBackExcel(f *excelize.File, path, sheet string, header []string, data [][]string, hadKeyColumn bool) error {
	if !hadKeyColumn {
		if err := f.InsertCols(sheet, "A", 1); err != nil {
			return fmt.Errorf("failed to insert key column: %w", err)
		}
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range data {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write back keys: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNumber int, cells []string) error {
	start, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", rowNumber, err)
	}
	values := make([]any, len(cells))
	for i, cell := range cells {
		values[i] = cell
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNumber, err)
	}
	return nil
}
