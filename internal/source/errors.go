package source

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSnapshot means no refresh has succeeded yet.
	ErrNoSnapshot = errors.New("no campaign snapshot loaded")
	// ErrSuperseded means a newer refresh started before this one committed.
	ErrSuperseded = errors.New("refresh superseded by a newer refresh")
	// ErrNotConfigured means a source was asked for data it has no location for.
	ErrNotConfigured = errors.New("source not configured")

	// errRefreshSkipped means another replica is refreshing and this one
	// keeps what it has.
	errRefreshSkipped = errors.New("refresh skipped")
)

// FetchError names the upstream that failed. It unwraps to the cause so
// errors.Is and errors.As see through it.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(source string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Source: source, Err: err}
}
