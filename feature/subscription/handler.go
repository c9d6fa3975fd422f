package subscription

import (
	"errors"
	"strings"
	"time"

	"push-manager/core/logger"
	"push-manager/core/provider"
	"push-manager/core/reconcile"
	"push-manager/core/token"
	"push-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionResponse is returned when a session is opened.
type SessionResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	Session   reconcile.Snapshot `json:"session"`
	Error     string             `json:"error,omitempty"`
}

// CategoryRequest selects a category.
type CategoryRequest struct {
	CategoryID string `json:"category_id"`
}

// SubscriptionEvent is an opt-in change reported by the browser. OptedIn
// accepts booleans, numbers and strings.
type SubscriptionEvent struct {
	OptedIn        any    `json:"opted_in"`
	SubscriptionID string `json:"subscription_id"`
}

// PermissionEvent is a permission change reported by the browser.
type PermissionEvent struct {
	Permission string `json:"permission"`
}

// Handler handles HTTP requests for subscription sessions.
type Handler struct {
	service *Service
	issuer  *token.Issuer
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, issuer *token.Issuer, logger *zap.Logger) *Handler {
	return &Handler{service: service, issuer: issuer, logger: logger}
}

// RegisterRoutes registers the subscription routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/categories", h.HandleCategories)
	app.Post("/sessions/:externalId", h.HandleOpen)

	group := app.Group("/sessions/:externalId", h.requireToken)
	group.Get("/", h.HandleSnapshot)
	group.Delete("/", h.HandleClose)
	group.Put("/category", h.HandleSelectCategory)
	group.Post("/subscribe", h.HandleSubscribe)
	group.Post("/unsubscribe", h.HandleUnsubscribe)
	group.Post("/events/subscription", h.HandleSubscriptionEvent)
	group.Post("/events/permission", h.HandlePermissionEvent)
	group.Get("/notices", h.HandleNotices)
}

// requireToken checks that the bearer token was issued for the session in the path.
func (h *Handler) requireToken(c *fiber.Ctx) error {
	claims, err := h.issuer.Validate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		logger.WithRayID(h.logger, c).Debug("Rejected session token", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session token"})
	}
	if claims.ExternalID != c.Params("externalId") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Token does not match session"})
	}
	return c.Next()
}

// HandleCategories lists the notification categories.
// @Summary List Categories
// @Description Returns the catalog of notification categories a visitor can choose from.
// @Tags subscription
// @Produce json
// @Success 200 {array} catalog.Category "Categories"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /categories [get]
func (h *Handler) HandleCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.Context())
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to load catalog", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(categories)
}

// HandleOpen opens (or resumes) a session and issues its token.
// @Summary Open Session
// @Description Starts the reconciler for a visitor and returns a session token. A failed provider still yields a session in the failed state.
// @Tags subscription
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Success 201 {object} SessionResponse "Session"
// @Failure 400 {object} map[string]string "Invalid external id"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sessions/{externalId} [post]
func (h *Handler) HandleOpen(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	externalID := c.Params("externalId")

	sess, startErr := h.service.Open(c.Context(), externalID)
	if sess == nil {
		return h.respondError(c, startErr)
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return h.respondError(c, err)
	}

	signed, expiresAt, err := h.issuer.Generate(externalID)
	if err != nil {
		l.Error("Failed to issue session token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	resp := SessionResponse{Token: signed, ExpiresAt: expiresAt, Session: snap}
	if startErr != nil {
		resp.Error = startErr.Error()
	}
	l.Info("Session opened", zap.String("external_id", externalID), zap.String("state", string(snap.Subscription.State)))
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleSnapshot returns the session state.
// @Summary Get Session
// @Tags subscription
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Success 200 {object} reconcile.Snapshot "Snapshot"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{externalId} [get]
func (h *Handler) HandleSnapshot(c *fiber.Ctx) error {
	sess, err := h.service.Get(c.Params("externalId"))
	if err != nil {
		return h.respondError(c, err)
	}
	snap, err := sess.Snapshot()
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(snap)
}

// HandleClose tears down a session. The persisted selection is kept.
// @Summary Close Session
// @Tags subscription
// @Param externalId path string true "Visitor external id"
// @Success 204 "Closed"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{externalId} [delete]
func (h *Handler) HandleClose(c *fiber.Ctx) error {
	if err := h.service.Close(c.Params("externalId")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSelectCategory selects the visitor's category.
// @Summary Select Category
// @Description Stores the selection and, when opted in, tags the subscription. Returns 202 when the tag update is still pending.
// @Tags subscription
// @Accept json
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Param body body CategoryRequest true "Category"
// @Success 200 {object} reconcile.Snapshot "Applied"
// @Success 202 {object} map[string]interface{} "Pending"
// @Failure 400 {object} map[string]string "Unknown category"
// @Failure 409 {object} map[string]string "Superseded"
// @Failure 503 {object} map[string]string "Actions disabled"
// @Router /sessions/{externalId}/category [put]
func (h *Handler) HandleSelectCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil || req.CategoryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category_id is required"})
	}
	snap, err := h.service.SelectCategory(c.Context(), c.Params("externalId"), req.CategoryID)
	return h.respond(c, snap, err)
}

// HandleSubscribe opts the visitor in.
// @Summary Subscribe
// @Description Opts the push subscription in and applies the given or persisted category.
// @Tags subscription
// @Accept json
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Param body body CategoryRequest false "Optional category"
// @Success 200 {object} reconcile.Snapshot "Subscribed"
// @Success 202 {object} map[string]interface{} "Pending"
// @Failure 503 {object} map[string]string "Actions disabled"
// @Router /sessions/{externalId}/subscribe [post]
func (h *Handler) HandleSubscribe(c *fiber.Ctx) error {
	var req CategoryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
	}
	snap, err := h.service.Subscribe(c.Context(), c.Params("externalId"), req.CategoryID)
	return h.respond(c, snap, err)
}

// HandleUnsubscribe opts the visitor out.
// @Summary Unsubscribe
// @Tags subscription
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Success 200 {object} reconcile.Snapshot "Unsubscribed"
// @Failure 503 {object} map[string]string "Actions disabled"
// @Router /sessions/{externalId}/unsubscribe [post]
func (h *Handler) HandleUnsubscribe(c *fiber.Ctx) error {
	snap, err := h.service.Unsubscribe(c.Context(), c.Params("externalId"))
	return h.respond(c, snap, err)
}

// HandleSubscriptionEvent records an opt-in change seen by the browser.
// @Summary Report Subscription Change
// @Tags subscription
// @Accept json
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Param body body SubscriptionEvent true "Event"
// @Success 200 {object} reconcile.Snapshot "Snapshot"
// @Router /sessions/{externalId}/events/subscription [post]
func (h *Handler) HandleSubscriptionEvent(c *fiber.Ctx) error {
	var ev SubscriptionEvent
	if err := c.BodyParser(&ev); err != nil || ev.OptedIn == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "opted_in is required"})
	}
	snap, err := h.service.ReportSubscription(c.Params("externalId"), utils.ToBool(ev.OptedIn), ev.SubscriptionID)
	return h.respond(c, snap, err)
}

// HandlePermissionEvent records a permission change seen by the browser.
// @Summary Report Permission Change
// @Tags subscription
// @Accept json
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Param body body PermissionEvent true "Event"
// @Success 200 {object} reconcile.Snapshot "Snapshot"
// @Failure 400 {object} map[string]string "Invalid permission"
// @Router /sessions/{externalId}/events/permission [post]
func (h *Handler) HandlePermissionEvent(c *fiber.Ctx) error {
	var ev PermissionEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := provider.ParsePermission(strings.ToLower(ev.Permission))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	snap, err := h.service.ReportPermission(c.Params("externalId"), p)
	return h.respond(c, snap, err)
}

// HandleNotices drains pending notices.
// @Summary Drain Notices
// @Description Returns and clears the notices queued for the visitor (confirmations, pending updates, provider failures).
// @Tags subscription
// @Produce json
// @Param externalId path string true "Visitor external id"
// @Success 200 {array} notice.Notice "Notices"
// @Router /sessions/{externalId}/notices [get]
func (h *Handler) HandleNotices(c *fiber.Ctx) error {
	notices, err := h.service.Notices(c.Params("externalId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(notices)
}

// respond writes snap, or maps err. A failed tag update is not a request
// failure: the selection is stored and the update is reported as pending.
func (h *Handler) respond(c *fiber.Ctx, snap reconcile.Snapshot, err error) error {
	if err == nil {
		return c.JSON(snap)
	}
	var applyErr *reconcile.ApplyError
	if errors.As(err, &applyErr) {
		logger.WithRayID(h.logger, c).Warn("Category update pending", zap.Error(err))
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":  "pending",
			"error":   err.Error(),
			"session": snap,
		})
	}
	return h.respondError(c, err)
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidExternalID), errors.Is(err, reconcile.ErrUnknownCategory):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, reconcile.ErrSuperseded),
		errors.Is(err, reconcile.ErrNotReady),
		errors.Is(err, reconcile.ErrNotSubscribed),
		errors.Is(err, reconcile.ErrInvalidTransition):
		status = fiber.StatusConflict
	case errors.Is(err, reconcile.ErrDisabled), errors.Is(err, ErrEventsUnsupported):
		status = fiber.StatusServiceUnavailable
	}

	l := logger.WithRayID(h.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error("Subscription request failed", zap.Error(err))
	} else {
		l.Info("Subscription request rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
