package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// xlsxReader walks the first worksheet of a workbook. Cells are read raw,
// so booleans arrive as "1"/"0" and dates as serial numbers unless the
// author typed them as text.
type xlsxReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	row    xlsxRow
	number int
	err    error
}

func newXLSXReader(r io.Reader) (*xlsxReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open workbook: %w", err)}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, &ParseError{Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, &ParseError{Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}
	return &xlsxReader{file: f, rows: rows}, nil
}

func (x *xlsxReader) Next() bool {
	if x.err != nil {
		return false
	}
	for x.rows.Next() {
		x.number++
		cells, err := x.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			x.err = &ParseError{Row: x.number, Err: err}
			return false
		}
		if blank(cells) {
			continue
		}
		x.row = xlsxRow{textRow{number: x.number, cells: cells}}
		return true
	}
	if err := x.rows.Error(); err != nil {
		x.err = &ParseError{Row: x.number, Err: err}
	}
	return false
}

func (x *xlsxReader) Row() Row   { return x.row }
func (x *xlsxReader) Err() error { return x.err }

func (x *xlsxReader) Close() error {
	x.rows.Close()
	return x.file.Close()
}

// xlsxRow reads typed cells, falling back to text parsing for cells
// entered as strings.
type xlsxRow struct {
	textRow
}

func (r xlsxRow) Bool(col int) (bool, error) {
	v, err := r.cell(col)
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(v) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return r.textRow.Bool(col)
}

func (r xlsxRow) Time(col int) (time.Time, error) {
	v, err := r.cell(col)
	if err != nil {
		return time.Time{}, err
	}
	if serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, &ParseError{Row: r.number, Column: col + 1, Err: err}
		}
		return t.UTC(), nil
	}
	return r.textRow.Time(col)
}
