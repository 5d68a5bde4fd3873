// Package blobstore keeps screenshots in an S3-compatible bucket.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bluefermion/feedback-capture/internal/errors"
)

// BasePath prefixes every screenshot object.
const BasePath = "screenshots"

// Client wraps a MinIO client bound to one bucket.
type Client struct {
	mc     *minio.Client
	bucket string
}

// NewMinIO connects to endpoint with static credentials.
func NewMinIO(endpoint, access, secret string, useTLS bool, bucket string) (*Client, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: useTLS,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", endpoint)
	}
	return &Client{mc: mc, bucket: bucket}, nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string { return c.bucket }

// EnsureBucket creates the bucket when it is missing.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", c.bucket)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.Wrapf(err, "create bucket %s", c.bucket)
		}
	}
	return nil
}

// Upload writes r under objectName.
func (c *Client) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := c.mc.PutObject(ctx, c.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrapf(err, "upload %s", objectName)
	}
	return nil
}

// PutScreenshot stores an encoded image for a feedback record and returns
// its object name.
func (c *Client) PutScreenshot(ctx context.Context, id string, created time.Time, image []byte) (string, error) {
	contentType := http.DetectContentType(image)
	name := ObjectPath(BasePath, created, id+extension(contentType))
	if err := c.Upload(ctx, name, bytes.NewReader(image), int64(len(image)), contentType); err != nil {
		return "", err
	}
	return name, nil
}

// Open streams an object back.
func (c *Client) Open(ctx context.Context, objectName string) (io.ReadCloser, string, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", errors.Wrapf(err, "open %s", objectName)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, "", errors.Wrapf(err, "stat %s", objectName)
	}
	return obj, info.ContentType, nil
}

// ObjectPath partitions objects by UTC day.
func ObjectPath(basePath string, t time.Time, file string) string {
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s",
		basePath, t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), file)
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
