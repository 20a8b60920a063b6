package server

import (
	"context"
	"crypto/x509/pkix"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/github/fakeca"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/infrahq/trustlist/api"
	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/internal/logging"
	"github.com/infrahq/trustlist/storage"
)

type switchableSource struct {
	raw certcache.RawCertificateSet
	err error
}

func (s *switchableSource) Fetch(context.Context) (certcache.RawCertificateSet, error) {
	return s.raw, s.err
}

func signerRecord(t *testing.T, country string) (json.RawMessage, *fakeca.Identity) {
	t.Helper()
	root := fakeca.New(fakeca.Subject(pkix.Name{CommonName: "CSCA " + country, Country: []string{country}}))
	signer := root.Issue(fakeca.Subject(pkix.Name{CommonName: "DSC " + country, Country: []string{country}}))
	record := fmt.Sprintf(`{"kid":"kid-%s","rawData":%q}`, country, base64.StdEncoding.EncodeToString(signer.Certificate.Raw))
	return json.RawMessage(record), signer
}

func setupServer(t *testing.T) (*Server, *switchableSource) {
	t.Helper()
	logging.PatchLogger(t, zapcore.DebugLevel)

	record, _ := signerRecord(t, "DE")
	src := &switchableSource{raw: certcache.RawCertificateSet{record}}

	de, err := certcache.New(certcache.Options{Issuer: "de", Source: src, Storage: storage.NewMemory()})
	assert.NilError(t, err)
	t.Cleanup(de.Shutdown)

	failing := certcache.SourceFunc(func(context.Context) (certcache.RawCertificateSet, error) {
		return nil, errors.New("connection refused")
	})
	at, err := certcache.New(certcache.Options{Issuer: "at", Source: failing, Storage: storage.NewMemory()})
	assert.NilError(t, err)
	t.Cleanup(at.Shutdown)

	group, err := certcache.NewGroup(de, at)
	assert.NilError(t, err)
	_ = group.Initialize(context.Background())

	return &Server{
		options:         Options{},
		group:           group,
		metricsRegistry: prometheus.NewRegistry(),
	}, src
}

func doRequest(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestAPI_ListIssuers(t *testing.T) {
	s, _ := setupServer(t)
	routes := s.GenerateRoutes()

	resp := doRequest(t, routes, http.MethodGet, "/v1/issuers")
	assert.Equal(t, resp.Code, http.StatusOK, resp.Body.String())

	var body api.ListResponse[api.Issuer]
	assert.NilError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, body.Count, 2)
	assert.Equal(t, body.Items[0].Name, "at")
	assert.Equal(t, body.Items[0].Certificates, 0)
	assert.Assert(t, is.Contains(body.Items[0].LastError, "connection refused"))
	assert.Equal(t, body.Items[1].Name, "de")
	assert.Equal(t, body.Items[1].Certificates, 1)
	assert.Equal(t, body.Items[1].LoadedFrom, "source")
	assert.Equal(t, body.Items[1].LastError, "")
}

func TestAPI_GetIssuer(t *testing.T) {
	s, _ := setupServer(t)
	routes := s.GenerateRoutes()

	resp := doRequest(t, routes, http.MethodGet, "/v1/issuers/de")
	assert.Equal(t, resp.Code, http.StatusOK, resp.Body.String())

	var issuer api.Issuer
	assert.NilError(t, json.Unmarshal(resp.Body.Bytes(), &issuer))
	assert.Equal(t, issuer.Name, "de")
	assert.Assert(t, !time.Time(issuer.LastSuccess).IsZero())

	resp = doRequest(t, routes, http.MethodGet, "/v1/issuers/xx")
	assert.Equal(t, resp.Code, http.StatusNotFound)
	assert.Assert(t, is.Contains(resp.Body.String(), "unknown issuer: xx"))
}

func TestAPI_ListCertificates(t *testing.T) {
	s, _ := setupServer(t)
	routes := s.GenerateRoutes()

	resp := doRequest(t, routes, http.MethodGet, "/v1/issuers/de/certificates")
	assert.Equal(t, resp.Code, http.StatusOK, resp.Body.String())

	var body api.ListResponse[api.Certificate]
	assert.NilError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, body.Count, 1)
	cert := body.Items[0]
	assert.Equal(t, cert.KeyID, "kid-DE")
	assert.Equal(t, cert.Country, "DE")
	assert.Assert(t, is.Contains(cert.Subject, "CN=DSC DE"))
	assert.Equal(t, len(cert.Fingerprint), 64)
	assert.Assert(t, !cert.Expired)

	resp = doRequest(t, routes, http.MethodGet, "/v1/issuers/at/certificates")
	assert.Equal(t, resp.Code, http.StatusOK)
	assert.Equal(t, resp.Body.String(), `{"items":[],"count":0}`)
}

func TestAPI_RefreshIssuer(t *testing.T) {
	s, src := setupServer(t)
	routes := s.GenerateRoutes()

	record, _ := signerRecord(t, "DE")
	src.raw = append(src.raw, record)

	resp := doRequest(t, routes, http.MethodPost, "/v1/issuers/de/refresh")
	assert.Equal(t, resp.Code, http.StatusOK, resp.Body.String())

	var issuer api.Issuer
	assert.NilError(t, json.Unmarshal(resp.Body.Bytes(), &issuer))
	assert.Equal(t, issuer.Certificates, 2)

	resp = doRequest(t, routes, http.MethodPost, "/v1/issuers/at/refresh")
	assert.Equal(t, resp.Code, http.StatusBadGateway)
	assert.Assert(t, is.Contains(resp.Body.String(), "fetching certificates for at"))
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	s, _ := setupServer(t)
	routes := s.GenerateRoutes()

	resp := doRequest(t, routes, http.MethodGet, "/healthz")
	assert.Equal(t, resp.Code, http.StatusOK)

	doRequest(t, routes, http.MethodGet, "/v1/issuers")

	resp = doRequest(t, routes, http.MethodGet, "/metrics")
	assert.Equal(t, resp.Code, http.StatusOK)
	assert.Assert(t, strings.Contains(resp.Body.String(), "http_request_duration_seconds"))

	resp = doRequest(t, routes, http.MethodGet, "/nothing")
	assert.Equal(t, resp.Code, http.StatusNotFound)
}

func TestServer_Run(t *testing.T) {
	s, _ := setupServer(t)
	srv, err := New(Options{Addr: "127.0.0.1:0"}, s.group, prometheus.NewRegistry())
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	client := api.Client{URL: "http://" + srv.Addr.String()}
	issuers, err := client.ListIssuers(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(issuers), 2)

	certs, err := client.ListCertificates(context.Background(), "de")
	assert.NilError(t, err)
	assert.Equal(t, len(certs), 1)

	cancel()
	select {
	case err := <-done:
		assert.NilError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
