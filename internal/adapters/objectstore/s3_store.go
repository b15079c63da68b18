package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API - используемое подмножество клиента S3
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Config хранит параметры подключения к S3-совместимому хранилищу
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // пусто для AWS, адрес для MinIO и т.п.
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PublicBaseURL   string // адрес, по которому объекты доступны клиентам
}

// NewS3Client создает клиент из конфигурации по умолчанию с необязательными статическими ключами.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3Store реализует ObjectStorePort поверх S3.
type S3Store struct {
	client   S3API
	resolver *SourceResolver
	bucket   string
	baseURL  string
}

func NewS3Store(client S3API, resolver *SourceResolver, bucket, publicBaseURL string) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client cannot be nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if publicBaseURL == "" {
		return nil, fmt.Errorf("public base url is required")
	}
	if resolver == nil {
		resolver = NewSourceResolver(nil, DefaultMaxImageBytes)
	}
	return &S3Store{
		client:   client,
		resolver: resolver,
		bucket:   bucket,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, prefix string, source domain.ImageSource) (domain.StoredObject, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "S3Store",
		"method":    "Upload",
		"bucket":    s.bucket,
	})

	payload, err := s.resolver.Resolve(ctx, source)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("failed to resolve image source: %w", err)
	}

	key := NewObjectKey(prefix, payload.Ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload.Data),
		ContentLength: aws.Int64(int64(len(payload.Data))),
		ContentType:   aws.String(payload.ContentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		logger.Error("Failed to put object", err, port.Fields{"key": key})
		return domain.StoredObject{}, domain.NewStoreError("put object", err)
	}

	logger.Debug("Object stored", port.Fields{"key": key, "bytes": len(payload.Data)})
	return domain.StoredObject{Key: key, URL: s.urlFor(key)}, nil
}

// Delete - S3 не сообщает об отсутствующем ключе, повторное удаление безопасно.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.NewStoreError("delete object", err)
	}
	return nil
}

func (s *S3Store) ListByPrefix(ctx context.Context, prefix string) ([]domain.StoredObject, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	objects := make([]domain.StoredObject, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, domain.NewStoreError("list objects", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			objects = append(objects, domain.StoredObject{Key: key, URL: s.urlFor(key)})
		}
	}
	return objects, nil
}

// Recognize восстанавливает ключ из публичного URL этого хранилища.
func (s *S3Store) Recognize(rawURL string) (domain.StoredObject, bool) {
	rest, ok := strings.CutPrefix(rawURL, s.baseURL+"/")
	if !ok || rest == "" {
		return domain.StoredObject{}, false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	key, err := url.PathUnescape(rest)
	if err != nil || key == "" {
		return domain.StoredObject{}, false
	}
	return domain.StoredObject{Key: key, URL: s.urlFor(key)}, true
}

func (s *S3Store) urlFor(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}
