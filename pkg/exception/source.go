package exception

import "github.com/yanun0323/errors"

var (
	ErrSourceUnreadable = errors.New("historical source file is unreadable")
	ErrMalformedRecord  = errors.New("malformed record in historical source")
	ErrCaptureCorrupted = errors.New("capture log record is corrupted")
)
