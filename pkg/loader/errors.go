package loader

import "fmt"

// LoadError describes a failed load: the offending file and what was wrong
// with it. Any LoadError is fatal — the dashboard never starts on a partial
// data set.
type LoadError struct {
	// File is the path (or embedded name) of the file that failed.
	File string

	// Problem is a one-line description suitable for the operator.
	Problem string

	// Err is the underlying parse error, if any.
	Err error
}

// Error returns "load <file>: <problem>" with the underlying error appended.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.File, e.Problem, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.File, e.Problem)
}

// Unwrap returns the underlying parse error for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadErr builds a *LoadError without an underlying cause.
func loadErr(file, format string, args ...any) *LoadError {
	return &LoadError{File: file, Problem: fmt.Sprintf(format, args...)}
}

// wrapErr builds a *LoadError wrapping an underlying cause.
func wrapErr(file, problem string, err error) *LoadError {
	return &LoadError{File: file, Problem: problem, Err: err}
}
