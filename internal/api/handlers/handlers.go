package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/lead-call-relay/internal/app"
	"github.com/acme/lead-call-relay/internal/config"
	callsvc "github.com/acme/lead-call-relay/internal/service/call"
)

// HandlerSet bundles all HTTP handlers.
type HandlerSet struct {
	container *app.Container
	calls     *callsvc.Service
	cfg       *config.Config
}

// NewHandlerSet creates a new handler bundle.
func NewHandlerSet(container *app.Container) *HandlerSet {
	services := container.Services()
	return &HandlerSet{
		container: container,
		calls:     services.Call,
		cfg:       container.Config,
	}
}

// Register wires all routes onto the fiber app.
func (h *HandlerSet) Register(app *fiber.App) {
	app.Get("/", h.health)
	app.Get("/health", h.health)

	if h.cfg.Telemetry.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.container.Registry, promhttp.HandlerOpts{})))
	}

	app.Post("/webhook/trigger-call", h.triggerCall)
	app.Post("/debug/test-call", h.debugCall)
	app.Get("/funnel/call", h.funnelCall)
}

// ErrorHandler provides centralized error responses.
func (h *HandlerSet) ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code == fiber.StatusInternalServerError {
		h.container.Logger.Error("request failed", zap.String("path", ctx.Path()), zap.Error(err))
	}

	body := fiber.Map{
		"status": "error",
		"detail": message,
	}
	if sc := trace.SpanContextFromContext(ctx.UserContext()); sc.HasTraceID() {
		body["trace_id"] = sc.TraceID().String()
	}

	return ctx.Status(code).JSON(body)
}

func (h *HandlerSet) health(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "active",
		"system": h.cfg.App.Name,
	})
}
