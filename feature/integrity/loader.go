package integrity

import (
	"transfer-manager/core/storage"
	"transfer-manager/feature/transfer/ledger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Integrity feature.
func NewFeature(client storage.Client, bucket string, ldg *ledger.Ledger, logger *zap.Logger, chunkSize int) *Feature {
	svc := NewService(client, bucket, ldg, logger, chunkSize)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Service exposes the feature's service.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
