package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

// Client calls the API of a running trustlist server.
type Client struct {
	URL  string
	HTTP http.Client
}

func checkError(status int, body []byte) error {
	if status < 400 {
		return nil
	}

	var apiError Error
	if err := json.Unmarshal(body, &apiError); err != nil {
		apiError.Message = string(body)
		apiError.Code = int32(status)
	}

	switch apiError.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiError.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, apiError.Message)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: %s", ErrBadGateway, apiError.Message)
	case http.StatusInternalServerError:
		return ErrInternal
	}

	return errors.New(http.StatusText(status))
}

func request[Res any](ctx context.Context, client Client, method string, path string) (*Res, error) {
	req, err := http.NewRequestWithContext(ctx, method, client.URL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if err := checkError(resp.StatusCode, body); err != nil {
		return nil, fmt.Errorf("%s %q responded %d: %w", method, path, resp.StatusCode, err)
	}

	var res Res
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("parsing json response: %w. partial text: %q", err, partialText(body, 100))
	}
	return &res, nil
}

func partialText(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}

func (c Client) ListIssuers(ctx context.Context) ([]Issuer, error) {
	res, err := request[ListResponse[Issuer]](ctx, c, http.MethodGet, "/v1/issuers")
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c Client) GetIssuer(ctx context.Context, name string) (*Issuer, error) {
	return request[Issuer](ctx, c, http.MethodGet, "/v1/issuers/"+url.PathEscape(name))
}

func (c Client) ListCertificates(ctx context.Context, issuer string) ([]Certificate, error) {
	res, err := request[ListResponse[Certificate]](ctx, c, http.MethodGet, "/v1/issuers/"+url.PathEscape(issuer)+"/certificates")
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// RefreshIssuer asks the server to fetch the issuer's list now.
func (c Client) RefreshIssuer(ctx context.Context, name string) (*Issuer, error) {
	return request[Issuer](ctx, c, http.MethodPost, "/v1/issuers/"+url.PathEscape(name)+"/refresh")
}
