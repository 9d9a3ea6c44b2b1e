package integrity

import (
	"transfer-manager/core/storage/mocks"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	mockClient := new(mocks.Client)
	logger := zap.NewNop()
	// nil ledger: digests are not compared
	feature := NewFeature(mockClient, "test-bucket", nil, logger, 1024)

	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.Equal(t, "test-bucket", feature.Service().DefaultBucket())

	app := fiber.New()
	err := feature.Load(app)
	assert.NoError(t, err)
}
