package report

import (
	"context"
	"fmt"
	"path"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver
	_ "gocloud.dev/blob/s3blob"  // S3 driver (also B2/R2/MinIO)
)

// BlobPublisher writes report artifacts to an object store bucket via
// gocloud.dev.
type BlobPublisher struct {
	bucket *blob.Bucket
	url    string
	prefix string
}

// NewBlobPublisher opens the bucket at the given URL (gs://name, s3://name).
func NewBlobPublisher(bucketURL, prefix string) (*BlobPublisher, error) {
	bucket, err := blob.OpenBucket(context.Background(), bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return &BlobPublisher{bucket: bucket, url: bucketURL, prefix: prefix}, nil
}

// Write uploads data under key. Object store writes replace the prior
// object in one operation, so no temp key is needed.
func (p *BlobPublisher) Write(ctx context.Context, key string, data []byte) error {
	objKey := path.Join(p.prefix, key)
	if err := p.bucket.WriteAll(ctx, objKey, data, nil); err != nil {
		return fmt.Errorf("write %s/%s: %w", p.url, objKey, err)
	}
	return nil
}

// URI returns the canonical URI for the given key.
func (p *BlobPublisher) URI(key string) string {
	return p.url + "/" + path.Join(p.prefix, key)
}

// Close releases the bucket handle.
func (p *BlobPublisher) Close() error {
	return p.bucket.Close()
}
