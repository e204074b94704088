package config

import "errors"

// ErrInvalidConfig indicates the preferences file carries a value no run
// could use. Callers should use errors.Is() to check for it.
var ErrInvalidConfig = errors.New("config: invalid configuration")
