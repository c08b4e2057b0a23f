package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	echoapi "github.com/synkhq/authbridge/api/echo"
	"github.com/synkhq/authbridge/config"
	"github.com/synkhq/authbridge/log"
)

// NewHTTPServer creates and configures the Echo HTTP server hosting the
// bridge API.
func NewHTTPServer(cfg *config.ServerConfig, appLogger log.Logger, bridgeAPI *echoapi.BridgeAPI) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(appLogger))
	e.Use(otelecho.Middleware(cfg.OtelServiceName))

	bridgeAPI.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// requestLogger logs each request through the application logger so HTTP
// access lines carry the same shape (and trace ids) as everything else.
func requestLogger(appLogger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := map[string]any{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
			}
			if err != nil {
				appLogger.Error(c.Request().Context(), "HTTP Request", err, fields)
			} else {
				appLogger.Info(c.Request().Context(), "HTTP Request", fields)
			}
			return nil
		}
	}
}
