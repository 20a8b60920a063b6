package pki

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Parser turns a single issuer record into a Certificate.
type Parser interface {
	Parse(record json.RawMessage) (Certificate, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(record json.RawMessage) (Certificate, error)

func (f ParserFunc) Parse(record json.RawMessage) (Certificate, error) {
	return f(record)
}

var ErrNoCertificate = errors.New("record does not contain a certificate")

// DSCParser parses document signer certificate records. A record is either a
// JSON string holding a PEM block or base64 DER, or an object such as
//
//	{"kid": "...", "country": "DE", "rawData": "<base64 DER>"}
//
// where the certificate may also be named certificate, raw, pem or cert.
type DSCParser struct{}

var _ Parser = DSCParser{}

type dscRecord struct {
	KeyID       string `json:"kid"`
	KeyIDAlt    string `json:"keyId"`
	Country     string `json:"country"`
	CountryAlt  string `json:"country_code"`
	RawData     string `json:"rawData"`
	Certificate string `json:"certificate"`
	Raw         string `json:"raw"`
	PEM         string `json:"pem"`
	Cert        string `json:"cert"`
}

func (r dscRecord) data() string {
	for _, v := range []string{r.RawData, r.Certificate, r.Raw, r.PEM, r.Cert} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (DSCParser) Parse(record json.RawMessage) (Certificate, error) {
	record = bytes.TrimSpace(record)
	if len(record) == 0 || bytes.Equal(record, []byte("null")) {
		return Certificate{}, ErrNoCertificate
	}

	var rec dscRecord
	switch record[0] {
	case '"':
		var s string
		if err := json.Unmarshal(record, &s); err != nil {
			return Certificate{}, fmt.Errorf("decoding record: %w", err)
		}
		rec.Certificate = s
	case '{':
		if err := json.Unmarshal(record, &rec); err != nil {
			return Certificate{}, fmt.Errorf("decoding record: %w", err)
		}
	default:
		return Certificate{}, fmt.Errorf("unexpected record type starting with %q", record[0])
	}

	data := rec.data()
	if data == "" {
		return Certificate{}, ErrNoCertificate
	}

	der, err := decodeCertificate(data)
	if err != nil {
		return Certificate{}, err
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return Certificate{}, fmt.Errorf("parsing certificate: %w", err)
	}

	result := Certificate{
		KeyID:   rec.KeyID,
		Country: rec.Country,
		X509:    cert,
	}
	if result.KeyID == "" {
		result.KeyID = rec.KeyIDAlt
	}
	if result.KeyID == "" {
		result.KeyID = KeyID(cert.Raw)
	}
	if result.Country == "" {
		result.Country = rec.CountryAlt
	}
	if result.Country == "" && len(cert.Subject.Country) > 0 {
		result.Country = cert.Subject.Country[0]
	}

	return result, nil
}

// decodeCertificate returns the DER bytes from a PEM block or a base64
// encoded DER certificate.
func decodeCertificate(data string) ([]byte, error) {
	data = strings.TrimSpace(data)

	if strings.HasPrefix(data, "-----BEGIN") {
		block, _ := pem.Decode([]byte(data))
		if block == nil {
			return nil, fmt.Errorf("invalid PEM block")
		}
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
		}
		return block.Bytes, nil
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if der, err := enc.DecodeString(data); err == nil {
			return der, nil
		}
	}

	return nil, fmt.Errorf("certificate is neither PEM nor base64 DER")
}
