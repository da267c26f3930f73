package source

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver
	_ "gocloud.dev/blob/s3blob"  // S3 driver (also B2/R2/MinIO)
)

// BlobSource reads the snapshot from an object store bucket via
// gocloud.dev. Authentication follows the provider's default credential
// chain.
type BlobSource struct {
	bucket *blob.Bucket
	url    string
	key    string
}

// NewBlobSource opens the bucket at the given URL (gs://name, s3://name).
func NewBlobSource(bucketURL, key string) (*BlobSource, error) {
	bucket, err := blob.OpenBucket(context.Background(), bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return &BlobSource{bucket: bucket, url: bucketURL, key: key}, nil
}

// Fetch downloads and parses the snapshot object.
func (s *BlobSource) Fetch(ctx context.Context) (*Snapshot, error) {
	data, err := s.bucket.ReadAll(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s/%s: %w", s.url, s.key, err)
	}
	return parseSnapshot(s.key, data)
}

// Close releases the bucket handle.
func (s *BlobSource) Close() error {
	return s.bucket.Close()
}
