package transfer

import (
	"transfer-manager/core/storage"
	"transfer-manager/core/transfer"
	"transfer-manager/feature/transfer/ledger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the transfer feature. ldg may be nil, in which case
// transfers are not recorded.
func NewFeature(client storage.Client, cfg transfer.Config, logger *zap.Logger, ldg *ledger.Ledger) *Feature {
	svc := NewFeatureService(client, cfg, logger, ldg)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// NewFeatureService builds the service used by both the HTTP feature and the CLI.
func NewFeatureService(client storage.Client, cfg transfer.Config, logger *zap.Logger, ldg *ledger.Ledger) *Service {
	store := transfer.NewStore(client, logger, transfer.WithChunkSize(cfg.ChunkSize))
	return NewService(store, ldg, logger, cfg)
}

// Service exposes the feature's service.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "transfer"
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
