package pipeline

import (
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/aluiziolira/go-scrape-duelmasters/models"
)

// XLSXWriter writes a set catalog to a single-sheet workbook. Rows are kept in
// memory and the workbook is saved on Close.
type XLSXWriter struct {
	filename string
	file     *excelize.File
	sheet    string
	nextRow  int
	saved    bool
	mu       sync.Mutex
}

// NewXLSXWriter creates a workbook with the header row.
func NewXLSXWriter(filename string) (*XLSXWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, h := range models.Columns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("write xlsx header: %w", err)
		}
	}

	return &XLSXWriter{
		filename: filename,
		file:     f,
		sheet:    sheet,
		nextRow:  2,
	}, nil
}

// Write appends records as typed cells.
func (xw *XLSXWriter) Write(records []*models.CardRecord) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	for _, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, xw.nextRow)
		values := []any{
			r.No, r.Rarity, r.ID, r.JapaneseName, r.EnglishName, r.Civilization,
			r.Set, r.Reference, r.PriceYen, r.PriceSGD, r.Qty,
		}
		if err := xw.file.SetSheetRow(xw.sheet, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", xw.nextRow, err)
		}
		xw.nextRow++
	}
	return nil
}

// Close saves the workbook.
func (xw *XLSXWriter) Close() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.saved {
		return nil
	}
	if err := xw.file.SaveAs(xw.filename); err != nil {
		xw.file.Close()
		return fmt.Errorf("save xlsx file: %w", err)
	}
	xw.saved = true
	return xw.file.Close()
}

// Validate ensures at least the header row exists.
func (xw *XLSXWriter) Validate() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.nextRow < 2 {
		return fmt.Errorf("xlsx sheet is empty")
	}
	return nil
}

// Rows returns how many data rows were written.
func (xw *XLSXWriter) Rows() int {
	xw.mu.Lock()
	defer xw.mu.Unlock()
	return xw.nextRow - 2
}
