package sheetio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/kingrea/poresamples/internal/plate"
	"github.com/kingrea/poresamples/internal/sheet"
)

// ExportColumns returns the header Export writes for t: the visible columns
// followed by plate_position. The internal order column is never written.
func ExportColumns(t *sheet.Table) []string {
	return append(t.Columns(), sheet.ColPlatePosition)
}

// Export writes the sheet as CSV. Each row gets the plate position of its
// index; rows that do not fit on the plate get an empty position.
func Export(w io.Writer, t *sheet.Table) error {
	cw := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	columns := t.Columns()
	if err := cw.Write(ExportColumns(t)); err != nil {
		return fmt.Errorf("sheetio: write header: %w", err)
	}
	for i, row := range t.Rows() {
		record := make([]string, 0, len(columns)+1)
		for _, col := range columns {
			v, _ := row.Value(col)
			record = append(record, v)
		}
		record = append(record, plate.Label(i))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("sheetio: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sheetio: flush: %w", err)
	}
	return nil
}

// ExportFile writes the sheet to path. The file is written next to its
// destination first and renamed into place, so a failed export never leaves
// a truncated sheet behind.
func ExportFile(path string, t *sheet.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sheetio: ensure export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return fmt.Errorf("sheetio: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := Export(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sheetio: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("sheetio: move export into place: %w", err)
	}
	return nil
}
