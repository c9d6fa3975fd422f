package subscription

import (
	"push-manager/core/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the subscription feature around an existing service.
func NewFeature(service *Service, issuer *token.Issuer, logger *zap.Logger) *Feature {
	return &Feature{
		service: service,
		handler: NewHandler(service, issuer, logger),
	}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "subscription"
}

// IsEnabled reports whether sessions can be issued.
func (f *Feature) IsEnabled() bool {
	return f.handler.issuer != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service returns the session service, e.g. for shutdown.
func (f *Feature) Service() *Service {
	return f.service
}
