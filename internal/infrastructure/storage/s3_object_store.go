package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"skin-advisor/internal/domain/port"
)

// S3Scheme схема ссылок на объекты S3-совместимого хранилища
const S3Scheme = "s3"

// maxObjectBytes сколько байт читаем из объекта; больший снимок отклонит этап A
const maxObjectBytes = 10*1024*1024 + 1

// S3Config параметры подключения к S3/MinIO
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3ObjectStore хранит загруженные снимки и снимки с подсветкой в бакете,
// отдаёт снимки по ссылкам s3://bucket/key и выдаёт подписанные ссылки.
type S3ObjectStore struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewS3ObjectStore создаёт клиента; бакет создаётся при первом обращении
func NewS3ObjectStore(cfg S3Config) (*S3ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3ObjectStore{client: client, bucket: bucket, region: region}, nil
}

func (s *S3ObjectStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Upload кладёт снимок пользователя в бакет и возвращает ссылку s3://
func (s *S3ObjectStore) Upload(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	key := objectKey(userID, contentType)
	if err := s.put(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s://%s/%s", S3Scheme, s.bucket, key), nil
}

// Fetch читает объект по ссылке s3://bucket/key
func (s *S3ObjectStore) Fetch(ctx context.Context, url string) (*port.FetchedImage, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxObjectBytes))
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("object %s/%s: %w", bucket, key, port.ErrNotFound)
		}
		return nil, err
	}

	var contentType string
	if info, err := obj.Stat(); err == nil {
		contentType = info.ContentType
	}
	return &port.FetchedImage{Data: data, ContentType: contentType}, nil
}

// Publish сохраняет объект и возвращает подписанную ссылку на ttl
func (s *S3ObjectStore) Publish(ctx context.Context, key string, data []byte, contentType string, ttl time.Duration) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if err := s.put(ctx, key, data, contentType); err != nil {
		return "", err
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *S3ObjectStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// parseS3URL разбирает s3://bucket/key
func parseS3URL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, S3Scheme+"://")
	if !ok {
		return "", "", fmt.Errorf("unsupported image url %q", url)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 url %q", url)
	}
	return bucket, key, nil
}

var (
	_ port.ImageStore      = (*S3ObjectStore)(nil)
	_ port.ImageFetcher    = (*S3ObjectStore)(nil)
	_ port.ObjectPublisher = (*S3ObjectStore)(nil)
)
