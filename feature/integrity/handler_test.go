package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	svc, _, _, _ := setupService(t)
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)
	return app
}

func TestHandleIntegrityCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	bucket, _ := body["bucket"].(map[string]any)
	assert.Equal(t, true, bucket["matched"])
	ledgerReport, _ := body["ledger"].(map[string]any)
	assert.Equal(t, "ok", ledgerReport["status"])
}

func TestHandleBucketCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/buckets/test-bucket", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/buckets/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleBucketCheck_Unavailable(t *testing.T) {
	svc, mem, _, _ := setupService(t)
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)
	mem.Close()

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/buckets/test-bucket", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleLedgerCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/ledger", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
