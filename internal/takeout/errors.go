package takeout

import "fmt"

// LoadError reports that a dataset could not be obtained or did not have the
// expected shape. It aborts a reconciliation run.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErr(source string, err error) error {
	return &LoadError{Source: source, Err: err}
}
