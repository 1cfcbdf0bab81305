package exception

import "github.com/yanun0323/errors"

var (
	ErrConfigMissingOption = errors.New("configuration option is missing")
	ErrConfigBadOption     = errors.New("configuration option has an invalid value")
	ErrCalendarGap         = errors.New("session calendar intervals overlap or descend")
	ErrUnknownColumn       = errors.New("column name cannot be resolved in the file header")
)
