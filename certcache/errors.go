package certcache

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInitialized = errors.New("certificate cache is already initialized")
	ErrUnknownIssuer      = errors.New("unknown issuer")
)

// SourceUnavailableError is returned when the issuer's certificate source
// could not be fetched. The previously published list stays in place.
type SourceUnavailableError struct {
	Issuer string
	Err    error
}

func (e SourceUnavailableError) Error() string {
	return fmt.Sprintf("fetching certificates for %s: %v", e.Issuer, e.Err)
}

func (e SourceUnavailableError) Unwrap() error {
	return e.Err
}

// ParseError is returned by a refresh with the strict parse policy when a
// record could not be parsed. The previously published list stays in place.
type ParseError struct {
	Issuer string
	Index  int
	Err    error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parsing certificate %d for %s: %v", e.Index, e.Issuer, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}
