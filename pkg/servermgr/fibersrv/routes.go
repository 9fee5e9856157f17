package fibersrv

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RawQuerier - what the readiness probe needs from a database handle.
type RawQuerier interface {
	Schema() string
	QueryRaw(ctx context.Context, sql string, args ...any) (*dbx.ResultSet, error)
}

// RegisterHealthRoutes adds GET /health (liveness) and GET /health/ready, which
// runs SELECT 1 on db and answers 503 when it fails.
func RegisterHealthRoutes(app *fiber.App, db RawQuerier, timeout time.Duration) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "UP"})
	})

	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		if _, err := db.QueryRaw(ctx, "SELECT 1"); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "DOWN",
				"schema": db.Schema(),
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{"status": "UP", "schema": db.Schema()})
	})
}

// RegisterMetricsRoute exposes gatherer on GET /metrics.
func RegisterMetricsRoute(app *fiber.App, gatherer prometheus.Gatherer) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
