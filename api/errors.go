package api

import (
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound   = fmt.Errorf("not found")
	ErrBadRequest = fmt.Errorf("bad request")
	// ErrBadGateway means the issuer's certificate source could not be reached
	ErrBadGateway = fmt.Errorf("bad gateway")
	ErrInternal   = fmt.Errorf("internal error")
)

// Error is used as the response body for failed HTTP requests. It is also
// the error returned by Client methods when the request fails.
type Error struct {
	// Code is the HTTP status of the response.
	Code int32 `json:"code"`
	// Message contains the full text of the failure.
	Message string `json:"message"`
}

func (e Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %v", e.Code, strings.ToLower(http.StatusText(int(e.Code))))
	}
	return e.Message
}
