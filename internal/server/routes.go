package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infrahq/trustlist/api"
	"github.com/infrahq/trustlist/internal/ginutil"
	"github.com/infrahq/trustlist/metrics"
)

// GenerateRoutes constructs the http.Handler of the server.
//
// The order of routes in this function is important! Gin saves a route along
// with all the middleware that will apply to the route when the
// Router.{GET,POST,etc} method is called.
func (s *Server) GenerateRoutes() http.Handler {
	ginutil.SetMode()

	a := &API{group: s.group, now: time.Now}
	router := gin.New()
	router.NoRoute(notFoundHandler)

	router.Use(gin.Recovery())
	router.GET("/healthz", healthHandler)
	router.GET("/metrics", metrics.Handler(s.metricsRegistry))

	v1 := router.Group("/v1",
		loggingMiddleware(s.options.EnableLogSampling),
		metrics.Middleware(s.metricsRegistry),
	)

	get(v1, "/issuers", a.ListIssuers)
	get(v1, "/issuers/:name", a.GetIssuer)
	get(v1, "/issuers/:name/certificates", a.ListCertificates)
	post(v1, "/issuers/:name/refresh", a.RefreshIssuer)

	return router
}

type ReqResHandlerFunc[Req, Res any] func(c *gin.Context, req *Req) (Res, error)

func get[Req, Res any](r *gin.RouterGroup, route string, handler ReqResHandlerFunc[Req, Res]) {
	r.GET(route, func(c *gin.Context) {
		handle(c, http.StatusOK, handler)
	})
}

func post[Req, Res any](r *gin.RouterGroup, route string, handler ReqResHandlerFunc[Req, Res]) {
	r.POST(route, func(c *gin.Context) {
		handle(c, http.StatusOK, handler)
	})
}

func handle[Req, Res any](c *gin.Context, status int, handler ReqResHandlerFunc[Req, Res]) {
	req := new(Req)
	if err := c.ShouldBindUri(req); err != nil {
		sendAPIError(c, err)
		return
	}

	resp, err := handler(c, req)
	if err != nil {
		sendAPIError(c, err)
		return
	}

	c.JSON(status, resp)
}

func healthHandler(c *gin.Context) {
	c.Status(http.StatusOK)
}

func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, &api.Error{
		Code:    http.StatusNotFound,
		Message: http.StatusText(http.StatusNotFound),
	})
}
