package exception

import "github.com/yanun0323/errors"

var (
	ErrCausalityViolation = errors.New("entity emitted a message at or before the current clock")
	ErrUnsortedSource     = errors.New("historical source is not sorted by timestamp")
	ErrTimelineExhausted  = errors.New("timeline is exhausted")
)
