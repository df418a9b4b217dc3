// Package app contains the HTTP front-end exposing configured
// transformations.
package app

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/influxdata/influxdb/pkg/snowflake"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/bcdh/teicompleter/internal/transform"
)

// MaxBodySize limits the size of response bodies accepted for transformation,
// counted after any Content-Encoding is removed.
const MaxBodySize = "8M"

// Registry resolves configured transformations by name.
type Registry interface {
	Transformation(name string) (transform.Transformation, bool)
	TransformationList() []transform.Transformation
}

// New creates the HTTP front-end.
func New(
	devMode bool,
	logger *slog.Logger,
	registry Registry,
	engine *transform.Engine,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)

	if devMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	}

	ids := snowflake.New(rand.IntN(1023)) //nolint:gosec,mnd // this isn't for crypto
	srv.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: ids.NextString,
		}),
		middleware.Decompress(),
		middleware.BodyLimit(MaxBodySize),
		middleware.Gzip(),
	)

	handler{registry: registry, engine: engine, logger: logger}.register(srv)
	return srv
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return nil
		}
	}
}
