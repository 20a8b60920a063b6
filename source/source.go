// Package source fetches the raw certificate set of an issuer.
package source

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/infrahq/trustlist/certcache"
)

// decodeSet decodes a certificate set from a response body or file. The body
// is either a JSON array of records, or an object with the array in field.
func decodeSet(body []byte, field string) (certcache.RawCertificateSet, error) {
	if field == "" {
		var set certcache.RawCertificateSet
		if err := json.Unmarshal(body, &set); err != nil {
			return nil, fmt.Errorf("decoding certificate list: %w", err)
		}
		return nonNil(set), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decoding certificate list: %w", err)
	}
	inner, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("certificate list has no field %q", field)
	}

	var set certcache.RawCertificateSet
	if err := json.Unmarshal(inner, &set); err != nil {
		return nil, fmt.Errorf("decoding field %q: %w", field, err)
	}
	return nonNil(set), nil
}

func nonNil(set certcache.RawCertificateSet) certcache.RawCertificateSet {
	if set == nil {
		return certcache.RawCertificateSet{}
	}
	return set
}
