package audit

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelWriter writes tabular data to Excel format.
type ExcelWriter interface {
	// AddSheet adds a new sheet with the given name.
	AddSheet(name string) error

	// WriteHeader writes column headers to the current sheet.
	WriteHeader(columns []string) error

	// WriteRow writes a data row to the current sheet.
	WriteRow(row []interface{}) error

	// Save writes the Excel file to the writer.
	Save(w io.Writer) error

	// SaveToFile writes the Excel file to disk.
	SaveToFile(path string) error
}

// ExcelizeWriter implements ExcelWriter using the excelize library.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelizeWriter creates a new Excel writer.
func NewExcelizeWriter() ExcelWriter {
	return &ExcelizeWriter{
		file: excelize.NewFile(),
	}
}

// AddSheet adds a new sheet with the given name.
func (w *ExcelizeWriter) AddSheet(name string) error {
	// Truncate sheet name to 31 chars (Excel limit)
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		// Rename default sheet
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes column headers to the current sheet.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no sheet added")
	}
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	w.currentRow++
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no sheet added")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.currentRow++
	return nil
}

// Save writes the Excel file to the writer.
func (w *ExcelizeWriter) Save(out io.Writer) error {
	return w.file.Write(out)
}

// SaveToFile writes the Excel file to disk.
func (w *ExcelizeWriter) SaveToFile(path string) error {
	return w.file.SaveAs(path)
}

var exportColumns = []string{"ID", "Сессия", "Событие", "Данные", "Время"}

// Export writes the whole journal into an .xlsx file at path, one sheet with
// one row per event.
func (j *Journal) Export(ctx context.Context, path string) error {
	return j.export(ctx, func(w ExcelWriter) error { return w.SaveToFile(path) })
}

// ExportTo writes the whole journal as an .xlsx document to out.
func (j *Journal) ExportTo(ctx context.Context, out io.Writer) error {
	return j.export(ctx, func(w ExcelWriter) error { return w.Save(out) })
}

func (j *Journal) export(ctx context.Context, save func(ExcelWriter) error) error {
	entries, err := j.AllEntries(ctx)
	if err != nil {
		return err
	}

	writer := NewExcelizeWriter()
	if err := writer.AddSheet("События"); err != nil {
		return err
	}
	if err := writer.WriteHeader(exportColumns); err != nil {
		return err
	}
	for _, e := range entries {
		row := []interface{}{e.ID, e.SessionID, e.Event, e.Payload, e.CreatedAt.Format("2006-01-02 15:04:05")}
		if err := writer.WriteRow(row); err != nil {
			return err
		}
	}

	if err := save(writer); err != nil {
		return fmt.Errorf("save export: %w", err)
	}
	j.logger.Info().Int("events", len(entries)).Msg("journal exported")
	return nil
}
