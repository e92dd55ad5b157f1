package uploads

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"healthdir/internal/domain"
)

// MinIO puts uploads into a bucket and returns their public URL.
type MinIO struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string
}

// NewMinIO connects and creates the bucket when it is missing.
func NewMinIO(ctx context.Context, cfg MinIOConfig) (*MinIO, error) {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	base := cfg.PublicBase
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &MinIO{client: c, bucket: cfg.Bucket, publicBase: strings.TrimRight(base, "/")}, nil
}

func (m *MinIO) Save(ctx context.Context, u domain.Upload) (string, error) {
	key := uuid.NewString() + extension(u.Filename)
	size := u.Size
	if size <= 0 {
		size = -1
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, u.Body, size, minio.PutObjectOptions{ContentType: u.ContentType})
	if err != nil {
		return "", err
	}
	return objectURL(m.publicBase, m.bucket, key)
}

func objectURL(base, bucket, key string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = path.Join(u.Path, bucket, key)
	return u.String(), nil
}
