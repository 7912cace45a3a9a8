// Package importer turns uploaded CSV and XLSX files into to-do records.
//
// A file is read row by row; the first row is always a header and is
// dropped without inspection. Any malformed row fails the whole file.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"todoapp/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("file format not supported")
	ErrParseFailed       = errors.New("row could not be parsed")
)

type Format int

// csvColumns is the column count of a strict CSV row: title, isCompleted,
// createdDate, updatedDate.
const csvColumns = 4

const (
	FormatCSV Format = iota + 1
	FormatXLSX
)

// DetectFormat picks the format from the filename extension alone.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Options tunes parsing.
type Options struct {
	// StrictCSV parses CSV with quoting and exactly four columns. When
	// false each line is split on every comma, so a title containing a
	// comma shifts the remaining fields.
	StrictCSV bool
}

// ParseError locates a malformed cell. Row and Column are 1-based, Row
// counts the header, and zero means unknown.
type ParseError struct {
	Row    int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Row == 0:
		return e.Err.Error()
	case e.Column == 0:
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	default:
		return fmt.Sprintf("row %d, column %d: %v", e.Row, e.Column, e.Err)
	}
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParseFailed, e.Err}
}

// Parse reads every data row of the file into new records with fresh ids.
// It returns either all rows or an error; never a partial result.
func Parse(r io.Reader, filename string, opts Options) ([]models.ToDo, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	rows, err := newRowReader(r, format, opts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []models.ToDo
	header := true
	for rows.Next() {
		if header {
			header = false
			continue
		}

		row := rows.Row()
		todo, err := rowToDo(row, format, opts)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return todos, nil
}

func newRowReader(r io.Reader, format Format, opts Options) (RowReader, error) {
	switch format {
	case FormatCSV:
		if opts.StrictCSV {
			return newCSVReader(r), nil
		}
		return newLineReader(r), nil
	case FormatXLSX:
		return newXLSXReader(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func rowToDo(row Row, format Format, opts Options) (models.ToDo, error) {
	if format == FormatCSV && !opts.StrictCSV {
		line, err := row.String(0)
		if err != nil {
			return models.ToDo{}, err
		}
		row = textRow{number: row.Number(), cells: strings.Split(line, ",")}
	} else if format == FormatCSV && row.Len() != csvColumns {
		return models.ToDo{}, &ParseError{
			Row: row.Number(),
			Err: fmt.Errorf("expected %d columns, got %d", csvColumns, row.Len()),
		}
	}

	var (
		todo = models.ToDo{ID: uuid.New()}
		err  error
	)
	if todo.Title, err = row.String(0); err != nil {
		return models.ToDo{}, err
	}
	if todo.IsCompleted, err = row.Bool(1); err != nil {
		return models.ToDo{}, err
	}
	if todo.CreatedDate, err = row.Time(2); err != nil {
		return models.ToDo{}, err
	}
	if todo.UpdatedDate, err = row.Time(3); err != nil {
		return models.ToDo{}, err
	}
	return todo, nil
}
