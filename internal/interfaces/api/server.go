package api

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type ServerConfig struct {
	// APIToken, when set, is required as a bearer token on /api routes.
	APIToken string
}

// NewApp builds the fiber app: /health and /metrics are public, everything
// under /api goes through the token check.
func NewApp(h *Handler, cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	group := app.Group("/api", tokenAuth(cfg.APIToken))
	h.RegisterRoutes(group)
	return app
}

// requestLogger puts a request-scoped logger into the user context.
func requestLogger(c *fiber.Ctx) error {
	id, _ := c.Locals("requestid").(string)
	log := logger.L().With("request_id", id)
	c.SetUserContext(logger.ContextWithLogger(c.UserContext(), log))

	start := time.Now()
	err := c.Next()
	log.Debug("request handled", "method", c.Method(), "path", c.Path(), "took", time.Since(start).String())
	return err
}

func tokenAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		got := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing API token")
		}
		return c.Next()
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, app *fiber.App, addr string) error {
	log := logger.WithFields("component", "http", "addr", addr)
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down http server")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
