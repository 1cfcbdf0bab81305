package calendar

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/exception"
)

// SessionFileSpec describes the tabular file holding an exchange's
// session intervals.
type SessionFileSpec struct {
	Path           string
	OpenColumn     string
	CloseColumn    string
	DatetimeLayout string
	Sep            rune
}

// LoadSessions reads and validates a session calendar from file. Any
// malformed row is fatal: a broken schedule cannot gate anything.
func LoadSessions(exchange schema.ExchangeID, spec SessionFileSpec) (*Calendar, error) {
	file, err := os.Open(spec.Path)
	if err != nil {
		return nil, errors.Wrapf(exception.ErrSourceUnreadable, "%s: %v", spec.Path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = spec.Sep
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(exception.ErrSourceUnreadable, "read header of %s: %v", spec.Path, err)
	}
	openIdx, closeIdx := -1, -1
	for i, name := range header {
		switch name {
		case spec.OpenColumn:
			openIdx = i
		case spec.CloseColumn:
			closeIdx = i
		}
	}
	if openIdx < 0 {
		return nil, errors.Wrapf(exception.ErrUnknownColumn, "column %q in %s", spec.OpenColumn, spec.Path)
	}
	if closeIdx < 0 {
		return nil, errors.Wrapf(exception.ErrUnknownColumn, "column %q in %s", spec.CloseColumn, spec.Path)
	}

	var intervals []Interval
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s: %v", row+1, spec.Path, err)
		}
		row++
		if len(record) <= openIdx || len(record) <= closeIdx {
			return nil, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s has %d fields", row, spec.Path, len(record))
		}
		open, err := time.Parse(spec.DatetimeLayout, record[openIdx])
		if err != nil {
			return nil, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s open %q: %v", row, spec.Path, record[openIdx], err)
		}
		close, err := time.Parse(spec.DatetimeLayout, record[closeIdx])
		if err != nil {
			return nil, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s close %q: %v", row, spec.Path, record[closeIdx], err)
		}
		intervals = append(intervals, Interval{
			Open:  open.UTC().UnixNano(),
			Close: close.UTC().UnixNano(),
		})
	}
	return New(exchange, intervals)
}
