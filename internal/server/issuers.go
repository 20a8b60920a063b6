package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infrahq/trustlist/api"
	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/pki"
)

type API struct {
	group *certcache.Group
	now   func() time.Time
}

type EmptyRequest struct{}

func (a *API) ListIssuers(_ *gin.Context, _ *EmptyRequest) (*api.ListResponse[api.Issuer], error) {
	statuses := a.group.Statuses()
	result := make([]api.Issuer, 0, len(statuses))
	for _, status := range statuses {
		result = append(result, a.toAPIIssuer(status))
	}
	return api.NewListResponse(result), nil
}

func (a *API) GetIssuer(_ *gin.Context, r *api.Resource) (*api.Issuer, error) {
	e, err := a.group.Get(r.Name)
	if err != nil {
		return nil, err
	}
	issuer := a.toAPIIssuer(e.Status())
	return &issuer, nil
}

func (a *API) ListCertificates(_ *gin.Context, r *api.Resource) (*api.ListResponse[api.Certificate], error) {
	e, err := a.group.Get(r.Name)
	if err != nil {
		return nil, err
	}

	now := a.now()
	certs := e.Certificates()
	result := make([]api.Certificate, 0, len(certs))
	for _, cert := range certs {
		result = append(result, toAPICertificate(cert, now))
	}
	return api.NewListResponse(result), nil
}

// RefreshIssuer fetches the issuer's list now, outside of the daily schedule.
func (a *API) RefreshIssuer(c *gin.Context, r *api.Resource) (*api.Issuer, error) {
	e, err := a.group.Get(r.Name)
	if err != nil {
		return nil, err
	}
	if err := e.Refresh(c.Request.Context()); err != nil {
		return nil, err
	}
	issuer := a.toAPIIssuer(e.Status())
	return &issuer, nil
}

func (a *API) toAPIIssuer(s certcache.Status) api.Issuer {
	issuer := api.Issuer{
		Name:         s.Issuer,
		Certificates: s.Certificates,
		LoadedFrom:   s.LoadedFrom,
		LastAttempt:  api.Time(s.LastAttempt),
		LastSuccess:  api.Time(s.LastSuccess),
		NextRefresh:  api.Time(s.NextRefresh),
		Age:          api.Duration(s.Age(a.now())),
	}
	if s.LastError != nil {
		issuer.LastError = s.LastError.Error()
	}
	return issuer
}

func toAPICertificate(cert pki.Certificate, now time.Time) api.Certificate {
	return api.Certificate{
		KeyID:       cert.KeyID,
		Country:     cert.Country,
		Subject:     cert.Subject(),
		Fingerprint: cert.Fingerprint(),
		NotAfter:    api.Time(cert.NotAfter()),
		Expired:     cert.Expired(now),
	}
}
