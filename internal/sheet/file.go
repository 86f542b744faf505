package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for exports that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported sheet export format")

// FileSource reads a local export of the sheet.
type FileSource struct {
	Path string
	// SheetName selects the worksheet of an .xlsx file; the first one if empty.
	SheetName string
}

// Rows reads the export according to its extension.
func (f *FileSource) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".csv":
		return f.readCSV()
	case ".xlsx", ".xlsm":
		return f.readXLSX()
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Path)
}

func (f *FileSource) readCSV() ([][]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func (f *FileSource) readXLSX() ([][]string, error) {
	book, err := excelize.OpenFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer book.Close()

	name := f.SheetName
	if name == "" {
		name = book.GetSheetName(0)
	}
	rows, err := book.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %q: %w", name, err)
	}
	return rows, nil
}
