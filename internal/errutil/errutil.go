// Package errutil contains helpers to deal with errors
package errutil

import "fmt"

// RunAndSetError runs fn and stores its error in err if err is nil.
// It is meant to be used in defer statements on functions that use a
// named error return value:
//
//	defer errutil.RunAndSetError(f.Close, &err, "close file")
func RunAndSetError(fn func() error, err *error, msg string) {
	e := fn()
	if e == nil || err == nil {
		return
	}
	if *err == nil {
		*err = fmt.Errorf("%s: %w", msg, e)
	}
}
