package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/propgraph/propgraph/pkg/errs"
)

// Sheet is the first worksheet of an upload: its header row and the data
// rows below it. Cells are positional, so columns sharing a header keep
// their own values. Rows shorter than the header row are padded with empty
// strings.
type Sheet struct {
	Headers []string
	Rows    [][]string
}

func newSheet(headers []string, rows [][]string) *Sheet {
	sheet := &Sheet{Headers: headers, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet
}

// ReadFile decodes path as csv when the extension says so and as xlsx
// otherwise.
func ReadFile(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(f)
	}
	return ReadXLSX(f)
}

func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable workbook: %v", errs.ErrInvalidFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", errs.ErrInvalidFormat)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", errs.ErrInvalidFormat, sheets[0])
	}

	return newSheet(rows[0], rows[1:]), nil
}

func ReadCSV(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	records, err := gocsv.DefaultCSVReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable csv file: %v", errs.ErrInvalidFormat, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: csv file has no data rows", errs.ErrInvalidFormat)
	}
	return newSheet(records[0], records[1:]), nil
}
