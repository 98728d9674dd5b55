package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout   = 30 * time.Second
	uploadTimeout    = 10 * time.Minute
	defaultChunkSize = 5 * 1024 * 1024 // 5MB
)

// Client предоставляет методы для работы с S3-совместимым хранилищем
type Client struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	urlExpiry time.Duration
	logger    zerolog.Logger
}

// NewClient создает новый экземпляр клиента S3
func NewClient(conf *Config, logger zerolog.Logger) (*Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	if conf.AccessKeyID == "" || conf.SecretAccessKey == "" || conf.Bucket == "" {
		return nil, fmt.Errorf("missing required configuration: accessKeyID, secretAccessKey, and bucket are required")
	}

	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		conf.AccessKeyID,
		conf.SecretAccessKey,
		"",
	))

	client := s3.New(s3.Options{
		BaseEndpoint:     aws.String(conf.Endpoint),
		Region:           conf.Region,
		Credentials:      creds,
		UsePathStyle:     conf.UsePathStyle,
		RetryMode:        aws.RetryModeAdaptive,
		RetryMaxAttempts: 3,
	})

	s3Client := &Client{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    conf.Bucket,
		urlExpiry: conf.URLExpiry,
		logger:    logger.With().Str("component", "s3").Logger(),
	}

	// Проверяем подключение к бакету
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := s3Client.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(conf.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to access bucket %s: %w", conf.Bucket, err)
	}

	return s3Client, nil
}

// PutObject загружает содержимое файла в S3
func (h *Client) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" || body == nil {
		return fmt.Errorf("key and body are required")
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	// Читаем файл в буфер, чтобы SDK мог повторить запрос
	bufSize := int64(defaultChunkSize)
	if size > 0 && size < bufSize {
		bufSize = size
	}
	buf := bytes.NewBuffer(make([]byte, 0, bufSize))
	if _, err := io.Copy(buf, body); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := h.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}

	h.logger.Debug().Str("key", key).Int("bytes", buf.Len()).Msg("object uploaded")
	return nil
}

// GetURL возвращает подписанную ссылку на скачивание
func (h *Client) GetURL(ctx context.Context, key string) (*string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	exists, err := h.exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	req, err := h.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(h.urlExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign object url: %w", err)
	}

	return &req.URL, nil
}

// DeleteObject удаляет объект из S3
func (h *Client) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Если объект не существует, считаем операцию успешной
	exists, err := h.exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	_, err = h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	h.logger.Debug().Str("key", key).Msg("object deleted")
	return nil
}

func (h *Client) exists(ctx context.Context, key string) (bool, error) {
	_, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}
