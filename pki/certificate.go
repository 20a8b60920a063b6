// Package pki turns issuer certificate records into parsed signer certificates.
package pki

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// Certificate is a parsed document signer certificate published by an issuer.
type Certificate struct {
	// KeyID identifies the certificate in signed documents. Issuers that do
	// not publish one get the first 8 bytes of the SHA-256 of the DER.
	KeyID   string
	Country string
	X509    *x509.Certificate
}

// Subject returns the subject of the certificate, or "" when the certificate
// has not been parsed.
func (c Certificate) Subject() string {
	if c.X509 == nil {
		return ""
	}
	return c.X509.Subject.String()
}

// NotAfter returns the expiry of the certificate, or the zero time when the
// certificate has not been parsed.
func (c Certificate) NotAfter() time.Time {
	if c.X509 == nil {
		return time.Time{}
	}
	return c.X509.NotAfter
}

// Expired reports whether the certificate is past its NotAfter at now.
func (c Certificate) Expired(now time.Time) bool {
	if c.X509 == nil {
		return false
	}
	return now.After(c.X509.NotAfter)
}

// Fingerprint is the hex encoded SHA-256 of the DER certificate.
func (c Certificate) Fingerprint() string {
	if c.X509 == nil {
		return ""
	}
	return Fingerprint(c.X509.Raw)
}

// Fingerprint returns the hex encoded SHA-256 of raw.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// KeyID returns the key identifier used by the EU digital COVID certificate
// trust list: the first 8 bytes of the SHA-256 of the DER, base64 encoded.
func KeyID(raw []byte) string {
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:8])
}
