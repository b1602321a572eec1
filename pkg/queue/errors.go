package queue

import "errors"

type dropError struct {
	err error
}

func (e *dropError) Error() string { return e.err.Error() }
func (e *dropError) Unwrap() error { return e.err }

// Drop marks a task as unprocessable so the consumer rejects it without
// requeueing.
func Drop(err error) error {
	if err == nil {
		return nil
	}
	return &dropError{err: err}
}

func IsDrop(err error) bool {
	var d *dropError
	return errors.As(err, &d)
}
