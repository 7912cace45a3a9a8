package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RowReader walks a file one row at a time. Blank rows are never yielded.
type RowReader interface {
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// Row exposes typed access to the cells of one row by column index.
type Row interface {
	Number() int
	Len() int
	String(col int) (string, error)
	Bool(col int) (bool, error)
	Time(col int) (time.Time, error)
}

var errMissingCell = errors.New("missing cell")

// dateLayouts are tried in order for textual dates. Values without a zone
// are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
	"1/2/2006",
}

func parseBool(s string) (bool, error) {
	switch v := strings.TrimSpace(s); {
	case strings.EqualFold(v, "true"):
		return true, nil
	case strings.EqualFold(v, "false"):
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func parseTime(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// textRow holds cells that are plain text, as CSV produces.
type textRow struct {
	number int
	cells  []string
}

func (r textRow) Number() int { return r.number }
func (r textRow) Len() int    { return len(r.cells) }

func (r textRow) cell(col int) (string, error) {
	if col < 0 || col >= len(r.cells) {
		return "", &ParseError{Row: r.number, Column: col + 1, Err: errMissingCell}
	}
	return r.cells[col], nil
}

func (r textRow) String(col int) (string, error) {
	return r.cell(col)
}

func (r textRow) Bool(col int) (bool, error) {
	v, err := r.cell(col)
	if err != nil {
		return false, err
	}
	b, err := parseBool(v)
	if err != nil {
		return false, &ParseError{Row: r.number, Column: col + 1, Err: err}
	}
	return b, nil
}

func (r textRow) Time(col int) (time.Time, error) {
	v, err := r.cell(col)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseTime(v)
	if err != nil {
		return time.Time{}, &ParseError{Row: r.number, Column: col + 1, Err: err}
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
