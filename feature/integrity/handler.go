package integrity

import (
	"errors"

	"transfer-manager/core/logger"
	"transfer-manager/core/transfer"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/buckets/:bucket", h.HandleBucketCheck)
	group.Get("/ledger", h.HandleLedgerCheck)
}

// HandleIntegrityCheck audits the default bucket and the ledger schema.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := make(map[string]interface{})

	if bucketReport, err := h.service.CheckBucket(c.Context(), ""); err != nil {
		report["bucket"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["bucket"] = bucketReport
	}

	if ledgerReport, err := h.service.CheckLedger(); err != nil {
		report["ledger"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["ledger"] = ledgerReport
	}

	return c.JSON(report)
}

// HandleBucketCheck audits one bucket.
func (h *Handler) HandleBucketCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	bucket := c.Params("bucket")

	report, err := h.service.CheckBucket(c.Context(), bucket)
	if err != nil {
		l.Error("Bucket check failed", zap.String("bucket", bucket), zap.Error(err))
		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, transfer.ErrBucketNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, transfer.ErrStorageUnavailable):
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.Matched {
		l.Warn("Bucket integrity issues detected", zap.String("bucket", bucket), zap.Int("checked", report.Checked))
	}
	return c.JSON(report)
}

// HandleLedgerCheck checks the ledger schema.
func (h *Handler) HandleLedgerCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting ledger schema check")

	report, err := h.service.CheckLedger()
	if err != nil {
		l.Error("Ledger schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
