package proforma

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"shrimpquote_backend/platform/config"
)

// linkTTL is how long a presigned download link stays valid. Generous on
// purpose; buyers open these hours later.
const linkTTL = 24 * time.Hour

// Archive stores rendered proformas in MinIO and hands out presigned
// download links for the delivery fallback path.
type Archive struct {
	client *minio.Client
	bucket string
}

func NewArchive(cfg config.MinIOConfig) (*Archive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Archive{client: client, bucket: cfg.GetMinioBucketProformas()}, nil
}

// EnsureBucket creates the proforma bucket when missing.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	if a == nil {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// Store uploads one rendered PDF under the given key.
func (a *Archive) Store(ctx context.Context, key string, pdf []byte) error {
	if a == nil {
		return nil
	}
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("store proforma %s: %w", key, err)
	}
	return nil
}

// DownloadLink returns a presigned GET link for an archived proforma.
func (a *Archive) DownloadLink(ctx context.Context, key string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("archive is not configured")
	}
	link, err := a.client.PresignedGetObject(ctx, a.bucket, key, linkTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign proforma %s: %w", key, err)
	}
	return link.String(), nil
}
