package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// csvReader parses RFC 4180 records, honouring quotes.
type csvReader struct {
	r      *csv.Reader
	row    textRow
	number int
	err    error
}

func newCSVReader(r io.Reader) *csvReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &csvReader{r: cr}
}

func (c *csvReader) Next() bool {
	if c.err != nil {
		return false
	}
	for {
		record, err := c.r.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		c.number++
		if err != nil {
			c.err = &ParseError{Row: c.number, Err: err}
			return false
		}
		if blank(record) {
			continue
		}
		c.row = textRow{number: c.number, cells: record}
		return true
	}
}

func (c *csvReader) Row() Row     { return c.row }
func (c *csvReader) Err() error   { return c.err }
func (c *csvReader) Close() error { return nil }

// lineReader yields each physical line as a single cell, leaving any
// splitting to the caller.
type lineReader struct {
	r      *bufio.Reader
	row    textRow
	number int
	err    error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) Next() bool {
	if l.err != nil {
		return false
	}
	for {
		line, err := l.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			l.err = fmt.Errorf("read line %d: %w", l.number+1, err)
			return false
		}
		if line == "" && err != nil {
			return false
		}
		l.number++
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			if err != nil {
				return false
			}
			continue
		}
		l.row = textRow{number: l.number, cells: []string{line}}
		return true
	}
}

func (l *lineReader) Row() Row     { return l.row }
func (l *lineReader) Err() error   { return l.err }
func (l *lineReader) Close() error { return nil }
