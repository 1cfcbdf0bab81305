package source

import (
	"fmt"
	"os"
	"time"

	"github.com/yanun0323/errors"
)

// ErrLog collects per-record errors for one traded pair. Malformed records
// are reported here and skipped; they are never fatal to the run. A nil
// ErrLog discards everything.
type ErrLog struct {
	path string
	file *os.File
}

// OpenErrLog creates (truncating) the error log file at path. An empty
// path returns a nil log, which is safe to use.
func OpenErrLog(path string) (*ErrLog, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create error log %s", path)
	}
	return &ErrLog{path: path, file: file}, nil
}

// Reportf writes one timestamped line to the log.
func (l *ErrLog) Reportf(ts int64, format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	stamp := time.Unix(0, ts).UTC().Format("2006-01-02 15:04:05.000000000")
	fmt.Fprintf(l.file, "%s :: %s\n", stamp, fmt.Sprintf(format, args...))
}

// Close flushes and closes the underlying file.
func (l *ErrLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
