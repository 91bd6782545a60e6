package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	minio "github.com/minio/minio-go"
)

// objectClient is the subset of the minio client the S3 store uses.
type objectClient interface {
	BucketExists(bucketName string) (bool, error)
	MakeBucket(bucketName, location string) error
	PutObjectWithContext(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (int64, error)
	RemoveObject(bucketName, objectName string) error
}

// S3Config describes an S3 compatible bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base objects are reachable at; the bucket name is appended.
	PublicURL string
}

// S3 stores objects in an S3 compatible bucket.
type S3 struct {
	client    objectClient
	bucket    string
	publicURL string
}

// NewS3 connects to the endpoint and makes sure the bucket exists.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 endpoint and bucket are required")
	}

	client, err := minio.NewV4(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return newS3(client, cfg.Bucket, publicURL)
}

func newS3(client objectClient, bucket, publicURL string) (*S3, error) {
	exists, err := client.BucketExists(bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(bucket, ""); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}
	return &S3{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// Put uploads the object under a new unique key.
func (s *S3) Put(ctx context.Context, obj Object) (string, error) {
	name := objectName(obj.Filename)
	_, err := s.client.PutObjectWithContext(ctx, s.bucket, name, bytes.NewReader(obj.Data), obj.Size(), minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return joinURL(s.publicURL, s.bucket, name), nil
}

// Delete removes the object behind url.
func (s *S3) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := nameFromURL(url, joinURL(s.publicURL, s.bucket, ""))
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(s.bucket, name); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
