package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"push-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/singleflight"
)

// DefaultObjectName is the object key of the catalog override in the bucket.
const DefaultObjectName = "catalog/categories.json"

// Load reads the catalog override from storage. If the object does not exist
// the built-in default is returned.
func Load(ctx context.Context, client storage.Client, bucket, objectName string) (*Catalog, error) {
	obj, err := client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		if IsNotFound(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to get catalog object: %w", err)
	}
	defer obj.Close()

	// Minio reports missing keys lazily, on the first read
	data, err := io.ReadAll(obj)
	if err != nil {
		if IsNotFound(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read catalog object: %w", err)
	}

	return Parse(data)
}

// Publish uploads the catalog as JSON, creating the bucket if needed.
func Publish(ctx context.Context, client storage.Client, bucket, objectName string, c *Catalog) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	_, err = client.PutObject(ctx, bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload catalog: %w", err)
	}
	return nil
}

// IsNotFound reports whether err means the bucket or object does not exist.
func IsNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

// Cache keeps the loaded catalog and collapses concurrent loads. With a
// positive TTL the catalog is reloaded once it expires; a zero TTL keeps
// the first load until Invalidate.
type Cache struct {
	client storage.Client
	bucket string
	object string
	ttl    time.Duration

	mu      sync.RWMutex
	current *Catalog
	built   time.Time
	sf      singleflight.Group
}

// NewCache creates a catalog cache. A zero TTL never expires.
func NewCache(client storage.Client, bucket, objectName string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		bucket: bucket,
		object: objectName,
		ttl:    ttl,
	}
}

func (c *Cache) fresh() (*Catalog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil, false
	}
	return c.current, c.ttl == 0 || time.Since(c.built) <= c.ttl
}

// Get returns the cached catalog, loading it when missing or expired.
func (c *Cache) Get(ctx context.Context) (*Catalog, error) {
	if cat, ok := c.fresh(); ok {
		return cat, nil
	}

	result, err, _ := c.sf.Do(c.object, func() (interface{}, error) {
		if cat, ok := c.fresh(); ok {
			return cat, nil
		}

		cat, err := Load(ctx, c.client, c.bucket, c.object)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.current = cat
		c.built = time.Now()
		c.mu.Unlock()

		return cat, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Catalog), nil
}

// Seed stores cat as if it had just been loaded.
func (c *Cache) Seed(cat *Catalog) {
	c.mu.Lock()
	c.current = cat
	c.built = time.Now()
	c.mu.Unlock()
}

// Invalidate drops the cached catalog so the next Get reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}
