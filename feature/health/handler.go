package health

import (
	"errors"

	"push-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for health checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the health routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/health")
	group.Get("/", h.HandleHealth)
	group.Get("/storage", h.HandleStorage)
}

// HandleHealth runs every check.
// @Summary Health
// @Description Checks the catalog bucket, the database and the catalog. Returns 503 when a check fails.
// @Tags health
// @Produce json
// @Success 200 {object} Report "Healthy"
// @Failure 503 {object} Report "Unhealthy"
// @Router /health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	report := h.service.Run(c.Context())
	if !report.Healthy() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}

// HandleStorage checks and optionally fixes the catalog bucket.
// @Summary Check Storage
// @Description Checks that the catalog bucket exists. With fix=true the bucket is created and the built-in catalog published.
// @Tags health
// @Produce json
// @Param fix query boolean false "Create bucket and publish catalog"
// @Success 200 {object} map[string]interface{} "Storage Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /health/storage [get]
func (h *Handler) HandleStorage(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	if fix {
		l.Info("Attempting to fix catalog storage")
		if err := h.service.FixStorage(c.Context()); err != nil {
			l.Error("Storage fix failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to fix storage",
				"details": err.Error(),
			})
		}
	}

	if err := h.service.CheckStorage(c.Context()); err != nil {
		status := StatusError
		if errors.Is(err, ErrBucketMissing) {
			status = StatusMissing
		}
		return c.JSON(fiber.Map{"status": status, "error": err.Error()})
	}

	resp := fiber.Map{"status": StatusOK, "bucket": h.service.bucket}
	if fix {
		resp["status"] = "fixed"
	}
	return c.JSON(resp)
}
