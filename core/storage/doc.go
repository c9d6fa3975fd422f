// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a narrow interface. The service only
// needs a handful of operations: verifying the bucket, creating it, and
// reading or writing the category catalog object. This abstraction supports
// both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "push-manager")
package storage
