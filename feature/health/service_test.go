package health

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"push-manager/core/catalog"
	"push-manager/core/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB whose pings are scripted.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

type staticCatalog struct {
	cat *catalog.Catalog
	err error
}

func (s staticCatalog) Get(ctx context.Context) (*catalog.Catalog, error) {
	return s.cat, s.err
}

type counter int

func (c counter) Count() int { return int(c) }

func newTestService(client *mocks.Client, db *gorm.DB, cat CatalogSource) *Service {
	return NewService(client, "test-bucket", "catalog/categories.json", db, cat, counter(3), zap.NewNop())
}

func TestService_Run_Healthy(t *testing.T) {
	mockClient := new(mocks.Client)
	db, sqlMock := setupMockDB(t)
	svc := newTestService(mockClient, db, staticCatalog{cat: catalog.Default()})

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	sqlMock.ExpectPing()

	report := svc.Run(context.Background())

	assert.True(t, report.Healthy())
	assert.Equal(t, StatusOK, report.Checks["storage"].Status)
	assert.Equal(t, StatusOK, report.Checks["database"].Status)
	assert.Equal(t, catalog.Default().IDs(), report.Checks["catalog"].Detail)
	assert.Equal(t, 3, report.Checks["sessions"].Detail)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_Run_Failures(t *testing.T) {
	mockClient := new(mocks.Client)
	db, sqlMock := setupMockDB(t)
	svc := newTestService(mockClient, db, staticCatalog{err: errors.New("corrupt catalog")})

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)
	sqlMock.ExpectPing().WillReturnError(errors.New("gone away"))

	report := svc.Run(context.Background())

	assert.False(t, report.Healthy())
	assert.Equal(t, StatusError, report.Checks["storage"].Status)
	assert.Equal(t, StatusError, report.Checks["database"].Status)
	assert.Equal(t, StatusError, report.Checks["catalog"].Status)
}

func TestService_Run_MissingBucketWithoutDatabase(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := newTestService(mockClient, nil, staticCatalog{cat: catalog.Default()})

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)

	report := svc.Run(context.Background())

	assert.True(t, report.Healthy())
	assert.Equal(t, StatusMissing, report.Checks["storage"].Status)
	assert.Equal(t, StatusDisabled, report.Checks["database"].Status)
}

func TestService_FixStorage(t *testing.T) {
	t.Run("PublishesWhenMissing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		svc := newTestService(mockClient, nil, staticCatalog{cat: catalog.Default()})

		mockClient.On("GetObject", mock.Anything, "test-bucket", "catalog/categories.json", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "NoSuchBucket"})
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)
		mockClient.On("MakeBucket", mock.Anything, "test-bucket", mock.Anything).Return(nil)
		mockClient.On("PutObject", mock.Anything, "test-bucket", "catalog/categories.json", mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, nil)

		require.NoError(t, svc.FixStorage(context.Background()))
		mockClient.AssertCalled(t, "MakeBucket", mock.Anything, "test-bucket", mock.Anything)
		mockClient.AssertNumberOfCalls(t, "PutObject", 1)
	})

	t.Run("KeepsExistingCatalog", func(t *testing.T) {
		mockClient := new(mocks.Client)
		svc := newTestService(mockClient, nil, staticCatalog{cat: catalog.Default()})

		mockClient.On("GetObject", mock.Anything, "test-bucket", "catalog/categories.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(`[]`)), nil)

		require.NoError(t, svc.FixStorage(context.Background()))
		mockClient.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReadError", func(t *testing.T) {
		mockClient := new(mocks.Client)
		svc := newTestService(mockClient, nil, staticCatalog{cat: catalog.Default()})

		mockClient.On("GetObject", mock.Anything, "test-bucket", "catalog/categories.json", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "AccessDenied"})

		assert.Error(t, svc.FixStorage(context.Background()))
	})
}
