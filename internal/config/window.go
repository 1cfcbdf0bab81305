package config

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/source"
	"main/pkg/exception"
)

// LoadWindow reads a pair's activity window from its start-stop file.
// The file carries one row; extra rows widen the window to cover them
// all. An empty spec means no bounds.
func LoadWindow(spec WindowFileSpec) (source.Window, error) {
	if spec.Path == "" {
		return source.Window{}, nil
	}

	file, err := os.Open(spec.Path)
	if err != nil {
		return source.Window{}, errors.Wrapf(exception.ErrSourceUnreadable, "%s: %v", spec.Path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = spec.Sep
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return source.Window{}, errors.Wrapf(exception.ErrSourceUnreadable, "read header of %s: %v", spec.Path, err)
	}
	startIdx, stopIdx := -1, -1
	for i, name := range header {
		switch name {
		case spec.StartColumn:
			startIdx = i
		case spec.StopColumn:
			stopIdx = i
		}
	}
	if startIdx < 0 {
		return source.Window{}, errors.Wrapf(exception.ErrUnknownColumn, "column %q in %s", spec.StartColumn, spec.Path)
	}
	if stopIdx < 0 {
		return source.Window{}, errors.Wrapf(exception.ErrUnknownColumn, "column %q in %s", spec.StopColumn, spec.Path)
	}

	var window source.Window
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return source.Window{}, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s: %v", row+1, spec.Path, err)
		}
		row++
		if len(record) <= startIdx || len(record) <= stopIdx {
			return source.Window{}, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s has %d fields", row, spec.Path, len(record))
		}
		start, err := time.Parse(spec.DatetimeLayout, record[startIdx])
		if err != nil {
			return source.Window{}, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s start %q: %v", row, spec.Path, record[startIdx], err)
		}
		stop, err := time.Parse(spec.DatetimeLayout, record[stopIdx])
		if err != nil {
			return source.Window{}, errors.Wrapf(exception.ErrMalformedRecord, "row %d of %s stop %q: %v", row, spec.Path, record[stopIdx], err)
		}
		startNs, stopNs := start.UTC().UnixNano(), stop.UTC().UnixNano()
		if stopNs <= startNs {
			return source.Window{}, errors.Wrapf(exception.ErrConfigBadOption, "row %d of %s stop %q is not after start %q", row, spec.Path, record[stopIdx], record[startIdx])
		}
		if window.Start == 0 && window.Stop == 0 {
			window = source.Window{Start: startNs, Stop: stopNs}
			continue
		}
		if startNs < window.Start {
			window.Start = startNs
		}
		if stopNs > window.Stop {
			window.Stop = stopNs
		}
	}
	return window, nil
}
