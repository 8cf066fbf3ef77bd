package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the unauthenticated liveness endpoints
type HealthHandler struct {
	store    Pinger
	services map[string]bool
}

// NewHealthHandler creates a health handler. services lists static
// configuration flags reported as-is.
func NewHealthHandler(store Pinger, services map[string]bool) *HealthHandler {
	return &HealthHandler{store: store, services: services}
}

// Root handles GET /
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"timestamp": time.Now().Unix(),
	})
}

// Health handles GET /health
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      503 {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	services := fiber.Map{}
	for k, v := range h.services {
		services[k] = v
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := fiber.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		services["store"] = false
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	} else {
		services["store"] = true
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"services": services,
	})
}
