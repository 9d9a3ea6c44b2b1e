package transfer

import (
	"errors"
	"io"
	"net/url"

	"transfer-manager/core/logger"
	"transfer-manager/core/transfer"
	"transfer-manager/feature/transfer/ledger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for bucket and object transfers.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the transfer routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	buckets := app.Group("/buckets")
	buckets.Post("/:bucket", h.HandleCreateBucket)
	buckets.Delete("/:bucket", h.HandleDeleteBucket)
	buckets.Post("/:bucket/objects", h.HandleUpload)
	// HEAD first; Get also registers a HEAD route.
	buckets.Head("/:bucket/objects/*", h.HandleStat)
	buckets.Get("/:bucket/objects/*", h.HandleDownload)
	buckets.Post("/:bucket/roundtrip", h.HandleRoundTrip)

	transfers := app.Group("/transfers")
	transfers.Get("/", h.HandleHistory)
	transfers.Get("/:bucket/*", h.HandleLookup)
}

// HandleCreateBucket creates a bucket. Creating an existing bucket succeeds.
func (h *Handler) HandleCreateBucket(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	if err := h.service.CreateBucket(c.Context(), bucket); err != nil {
		return h.fail(c, "Create bucket failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"bucket": bucket, "status": "created"})
}

// HandleDeleteBucket deletes a bucket and its objects.
func (h *Handler) HandleDeleteBucket(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	if err := h.service.DeleteBucket(c.Context(), bucket); err != nil {
		return h.fail(c, "Delete bucket failed", err)
	}
	return c.JSON(fiber.Map{"bucket": bucket, "status": "deleted"})
}

// HandleUpload stores the multipart "file" field under a generated key.
// The optional "content_type" form field overrides the part's own header.
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file field"})
	}
	contentType := c.FormValue("content_type", fh.Header.Get("Content-Type"))

	f, err := fh.Open()
	if err != nil {
		return h.fail(c, "Failed to open upload", err)
	}
	defer f.Close()

	t, err := h.service.Upload(c.Context(), c.Params("bucket"), fh.Filename, contentType, f, fh.Size)
	if err != nil {
		return h.fail(c, "Upload failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// HandleDownload streams an object body to the client.
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	bucket, key, err := objectParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	obj, err := h.service.Open(c.Context(), bucket, key)
	if err != nil {
		return h.fail(c, "Download failed", err)
	}

	c.Set(fiber.HeaderContentType, obj.Metadata.ContentType)
	if _, err := h.service.Stream(obj, c.Response().BodyWriter()); err != nil {
		c.Response().ResetBody()
		return h.fail(c, "Download failed", err)
	}
	return nil
}

// HandleStat returns object metadata as headers.
func (h *Handler) HandleStat(c *fiber.Ctx) error {
	bucket, key, err := objectParams(c)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	meta, err := h.service.Stat(c.Context(), bucket, key)
	if err != nil {
		return c.SendStatus(statusFor(err))
	}
	c.Set(fiber.HeaderContentType, meta.ContentType)
	c.Response().Header.SetContentLength(int(meta.ContentLength))
	return nil
}

// HandleRoundTrip uploads the multipart "file" field, downloads it again and
// verifies the copy. A mismatch answers 422 with the failed check.
func (h *Handler) HandleRoundTrip(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file field"})
	}
	contentType := c.FormValue("content_type", fh.Header.Get("Content-Type"))

	f, err := fh.Open()
	if err != nil {
		return h.fail(c, "Failed to open upload", err)
	}
	content, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return h.fail(c, "Failed to read upload", err)
	}

	t, result, err := h.service.RoundTrip(c.Context(), c.Params("bucket"), fh.Filename, contentType, content, nil)
	if err != nil {
		if errors.Is(err, transfer.ErrVerificationFailed) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"transfer": t,
				"result":   result,
				"error":    err.Error(),
			})
		}
		return h.fail(c, "Round trip failed", err)
	}

	return c.JSON(fiber.Map{
		"transfer": t,
		"result":   result,
		"status":   result.String(),
	})
}

// HandleHistory lists recent transfers from the ledger.
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	records, err := h.service.History(c.Context(), c.QueryInt("limit", 50))
	if err != nil {
		return h.fail(c, "Listing transfers failed", err)
	}
	return c.JSON(fiber.Map{"transfers": records})
}

// HandleLookup returns the ledger entry of one object.
func (h *Handler) HandleLookup(c *fiber.Ctx) error {
	bucket, key, err := objectParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	rec, err := h.service.Lookup(c.Context(), bucket, key)
	if err != nil {
		return h.fail(c, "Transfer lookup failed", err)
	}
	return c.JSON(rec)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  transfer.Kind(err),
	})
}

func objectParams(c *fiber.Ctx) (string, string, error) {
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return "", "", err
	}
	if key == "" {
		return "", "", errors.New("object key is required")
	}
	return c.Params("bucket"), key, nil
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, transfer.ErrBucketNotFound),
		errors.Is(err, transfer.ErrObjectNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ErrLedgerDisabled):
		return fiber.StatusNotFound
	case errors.Is(err, transfer.ErrInvalidMetadata):
		return fiber.StatusBadRequest
	case errors.Is(err, transfer.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, transfer.ErrVerificationFailed):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
