package certcache

import (
	"context"

	"github.com/goccy/go-json"
)

// RawCertificateSet is the list of certificate records published by an
// issuer, in the issuer's own format. The engine only requires that it is
// valid JSON; an empty set is a valid result of a fetch.
type RawCertificateSet []json.RawMessage

// Source retrieves the current certificate set of one issuer. Fetch must be
// safe to call repeatedly. Failures are returned as errors; an issuer that
// publishes no certificates returns an empty set and a nil error.
type Source interface {
	Fetch(ctx context.Context) (RawCertificateSet, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (RawCertificateSet, error)

func (f SourceFunc) Fetch(ctx context.Context) (RawCertificateSet, error) {
	return f(ctx)
}

func encodeSnapshot(raw RawCertificateSet) ([]byte, error) {
	if raw == nil {
		raw = RawCertificateSet{}
	}
	return json.Marshal(raw)
}

func decodeSnapshot(b []byte) (RawCertificateSet, error) {
	var raw RawCertificateSet
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
