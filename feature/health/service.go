package health

import (
	"context"
	"errors"
	"fmt"
	"io"

	"push-manager/core/catalog"
	"push-manager/core/database"
	"push-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Check statuses.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDisabled = "disabled"
	StatusMissing  = "missing"
)

// ErrBucketMissing is returned when the catalog bucket does not exist.
var ErrBucketMissing = errors.New("bucket does not exist")

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// Report combines every check.
type Report struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Healthy reports whether no check failed.
func (r Report) Healthy() bool {
	return r.Status == StatusOK
}

// CatalogSource yields the current catalog.
type CatalogSource interface {
	Get(ctx context.Context) (*catalog.Catalog, error)
}

// SessionCounter reports how many sessions are open.
type SessionCounter interface {
	Count() int
}

// Service runs infrastructure checks.
type Service struct {
	client   storage.Client
	bucket   string
	object   string
	db       *gorm.DB
	catalogs CatalogSource
	sessions SessionCounter
	logger   *zap.Logger
}

// NewService creates a new health service. db and sessions may be nil.
func NewService(client storage.Client, bucket, object string, db *gorm.DB, catalogs CatalogSource, sessions SessionCounter, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		bucket:   bucket,
		object:   object,
		db:       db,
		catalogs: catalogs,
		sessions: sessions,
		logger:   logger,
	}
}

// CheckStorage verifies that the catalog bucket exists.
func (s *Service) CheckStorage(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return ErrBucketMissing
	}
	return nil
}

// FixStorage creates the bucket and publishes the built-in catalog when no
// catalog object exists yet.
func (s *Service) FixStorage(ctx context.Context) error {
	exists, err := s.catalogExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	s.logger.Info("Publishing built-in catalog", zap.String("bucket", s.bucket), zap.String("object", s.object))
	return catalog.Publish(ctx, s.client, s.bucket, s.object, catalog.Default())
}

// catalogExists reads the catalog object. Missing objects surface either
// from GetObject or from the first read.
func (s *Service) catalogExists(ctx context.Context) (bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err == nil {
		_, err = io.ReadAll(obj)
		obj.Close()
	}
	if err == nil {
		return true, nil
	}
	if catalog.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to read catalog object: %w", err)
}

// CheckDatabase pings the database. It returns false when no database is configured.
func (s *Service) CheckDatabase(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, nil
	}
	return true, database.Ping(ctx, s.db)
}

// CheckCatalog loads the catalog and returns its category ids.
func (s *Service) CheckCatalog(ctx context.Context) ([]string, error) {
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		return nil, err
	}
	return cat.IDs(), nil
}

// Run executes every check.
func (s *Service) Run(ctx context.Context) Report {
	report := Report{Status: StatusOK, Checks: make(map[string]CheckResult)}

	fail := func(name string, err error) {
		report.Status = StatusError
		report.Checks[name] = CheckResult{Status: StatusError, Error: err.Error()}
		s.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
	}

	if err := s.CheckStorage(ctx); errors.Is(err, ErrBucketMissing) {
		// The built-in catalog is used until one is published.
		report.Checks["storage"] = CheckResult{Status: StatusMissing, Error: err.Error()}
	} else if err != nil {
		fail("storage", err)
	} else {
		report.Checks["storage"] = CheckResult{Status: StatusOK, Detail: s.bucket}
	}

	if enabled, err := s.CheckDatabase(ctx); err != nil {
		fail("database", err)
	} else if !enabled {
		report.Checks["database"] = CheckResult{Status: StatusDisabled}
	} else {
		report.Checks["database"] = CheckResult{Status: StatusOK}
	}

	if ids, err := s.CheckCatalog(ctx); err != nil {
		fail("catalog", err)
	} else {
		report.Checks["catalog"] = CheckResult{Status: StatusOK, Detail: ids}
	}

	if s.sessions != nil {
		report.Checks["sessions"] = CheckResult{Status: StatusOK, Detail: s.sessions.Count()}
	}

	return report
}
