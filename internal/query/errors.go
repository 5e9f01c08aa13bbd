package query

import "fmt"

// InputError indicates a malformed list query supplied by the client.
// Transport layers map this to 400.
type InputError string

func (e InputError) Error() string { return string(e) }

func inputErrorf(format string, args ...any) InputError {
	return InputError(fmt.Sprintf(format, args...))
}

// StoreError wraps a failure returned by a Collection while executing a list
// query. Transport layers map this to 500.
type StoreError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Collection, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
