package ingestion

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet holds a worksheet's cells as formatted strings, row-major.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is a spreadsheet document and its named tabs, in tab order.
type Workbook struct {
	Name   string
	Sheets []Sheet
}

func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// Excel's "CSV UTF-8" export prefixes the file with this.
const utf8BOM = "\ufeff"

// SupportedExtensions lists the upload formats OpenWorkbook accepts.
var SupportedExtensions = []string{".xlsx", ".xls", ".csv"}

// IsSupported reports whether filename has an accepted spreadsheet extension.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// OpenWorkbook reads a workbook from disk, dispatching on extension. name is
// the file name the user uploaded; CSV files become a single sheet named
// after it.
func OpenWorkbook(path, name string) (*Workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if name == "" {
		name = filepath.Base(path)
	}

	switch ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open csv file: %w", err)
		}
		defer f.Close()
		return ReadCSV(f, name)
	case ".xlsx", ".xls", ".xlsm":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		return ReadExcel(f, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ReadExcel reads an xlsx document from r.
func ReadExcel(r io.Reader, name string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}
	defer f.Close()
	return readExcel(f, name)
}

func readExcel(f *excelize.File, name string) (*Workbook, error) {
	wb := &Workbook{Name: name}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: sheetName, Rows: rows})
	}
	if len(wb.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	return wb, nil
}

// ReadCSV reads comma-separated rows from r as a one-sheet workbook. Ragged
// rows are allowed and a leading UTF-8 byte-order mark is dropped.
func ReadCSV(r io.Reader, name string) (*Workbook, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", ErrWorkbookUnreadable, err)
	}

	sheetName := strings.TrimSuffix(name, filepath.Ext(name))
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &Workbook{
		Name:   name,
		Sheets: []Sheet{{Name: sheetName, Rows: rows}},
	}, nil
}
