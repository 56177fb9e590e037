package http

import (
	"context"
	"log"
	"net/http"

	"github.com/givepoint/donation-gateway/internal/fulfillment"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct{ e *echo.Echo }

// NewServer builds the webhook HTTP server. Metrics are registered by the
// caller at startup, so constructing more than one server is safe.
func NewServer(svc *fulfillment.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// webhook routes; GET is the liveness probe the processor hits during
	// endpoint registration
	e.POST("/webhooks/payment-events", webhookHandler(svc))
	e.GET("/webhooks/payment-events", livenessHandler())

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
