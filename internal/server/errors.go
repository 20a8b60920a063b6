package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infrahq/trustlist/api"
	"github.com/infrahq/trustlist/certcache"
	"github.com/infrahq/trustlist/internal/logging"
)

// sendAPIError translates err into the appropriate HTTP status code, builds a
// response body using api.Error, then sends both as a response to the active
// request.
func sendAPIError(c *gin.Context, err error) {
	resp := &api.Error{
		Code:    http.StatusInternalServerError,
		Message: "internal server error", // don't leak any info by default
	}

	var (
		sourceErr certcache.SourceUnavailableError
		parseErr  certcache.ParseError
	)

	switch {
	case errors.Is(err, certcache.ErrUnknownIssuer):
		resp.Code = http.StatusNotFound
		resp.Message = err.Error()

	case errors.As(err, &sourceErr), errors.As(err, &parseErr):
		resp.Code = http.StatusBadGateway
		resp.Message = err.Error()

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		resp.Code = http.StatusServiceUnavailable
		resp.Message = "request cancelled"
	}

	logging.L.Debug("api request error",
		zap.String("path", c.Request.URL.Path),
		zap.Int32("statusCode", resp.Code),
		zap.Error(err))

	c.JSON(int(resp.Code), resp)
	c.Abort()
}
