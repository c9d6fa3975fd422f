package health

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"push-manager/core/catalog"
	"push-manager/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	feature := NewFeature(mockClient, "test-bucket", "catalog/categories.json", nil, staticCatalog{cat: catalog.Default()}, nil, zap.NewNop())
	require.NoError(t, feature.Load(app))
	return app, mockClient
}

func TestHandleHealth(t *testing.T) {
	app, mockClient := setupTestApp(t)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, StatusOK, report.Status)
	assert.NotContains(t, report.Checks, "sessions")
}

func TestHandleHealth_Unhealthy(t *testing.T) {
	app, mockClient := setupTestApp(t)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleStorage(t *testing.T) {
	app, mockClient := setupTestApp(t)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/storage", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, StatusMissing, body["status"])
}

func TestHandleStorage_Fix(t *testing.T) {
	app, mockClient := setupTestApp(t)
	mockClient.On("GetObject", mock.Anything, "test-bucket", "catalog/categories.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	mockClient.On("PutObject", mock.Anything, "test-bucket", "catalog/categories.json", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/storage?fix=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "fixed", body["status"])
}

func TestLoader(t *testing.T) {
	feature := NewFeature(new(mocks.Client), "test-bucket", "catalog/categories.json", nil, staticCatalog{cat: catalog.Default()}, nil, zap.NewNop())
	assert.Equal(t, "health", feature.Name())
	assert.True(t, feature.IsEnabled())
}
