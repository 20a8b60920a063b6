package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/internal/logging"
	"github.com/infrahq/trustlist/internal/repeat"
)

const maxBodySize = 64 << 20

type OAuth2Config struct {
	TokenURL     string   `config:"tokenURL" validate:"required_with=ClientID,omitempty,url"`
	ClientID     string   `config:"clientID"`
	ClientSecret string   `config:"clientSecret"`
	Scopes       []string `config:"scopes"`
}

type HTTPConfig struct {
	URL string `config:"url" validate:"required,url"`
	// Field names the member of a JSON object response that holds the
	// certificate array. Empty when the response is the array itself.
	Field   string            `config:"field"`
	Headers map[string]string `config:"headers"`
	Timeout time.Duration     `config:"timeout"`
	// Retries is the number of extra attempts after a failed request.
	Retries int          `config:"retries" validate:"min=0"`
	OAuth2  OAuth2Config `config:"oauth2"`
}

// HTTP fetches the certificate list of an issuer from a URL. Fetch may be
// called concurrently; each call backs off on its own.
type HTTP struct {
	config     HTTPConfig
	client     *http.Client
	newBackOff func() backoff.BackOff
}

var _ certcache.Source = (*HTTP)(nil)

func NewHTTP(config HTTPConfig) *HTTP {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	client := &http.Client{Timeout: config.Timeout}
	if config.OAuth2.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     config.OAuth2.ClientID,
			ClientSecret: config.OAuth2.ClientSecret,
			TokenURL:     config.OAuth2.TokenURL,
			Scopes:       config.OAuth2.Scopes,
		}
		client = cc.Client(context.Background())
		client.Timeout = config.Timeout
	}

	return &HTTP{
		config: config,
		client: client,
		newBackOff: func() backoff.BackOff {
			return &backoff.ExponentialBackOff{
				InitialInterval:     500 * time.Millisecond,
				RandomizationFactor: 0.2,
				Multiplier:          2,
				MaxInterval:         30 * time.Second,
			}
		},
	}
}

func (h *HTTP) Fetch(ctx context.Context) (certcache.RawCertificateSet, error) {
	var set certcache.RawCertificateSet
	waiter := repeat.NewWaiter(h.newBackOff())
	err := waiter.Retry(ctx, h.config.Retries, func() error {
		var err error
		set, err = h.fetch(ctx)
		if err != nil {
			logging.L.Debug("certificate list request failed", zap.String("url", h.config.URL), zap.Error(err))
		}
		return err
	})
	return set, err
}

func (h *HTTP) fetch(ctx context.Context) (certcache.RawCertificateSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.config.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected response status %s from %s", resp.Status, h.config.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return decodeSet(body, h.config.Field)
}
