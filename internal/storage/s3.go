package storage

import (
	"alcyxob/coach-app/internal/config"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Storage presigns item media URLs against an S3-compatible bucket.
type s3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	defaultExpiry time.Duration
}

// NewS3Storage builds the media store from config. A non-empty Endpoint
// targets an S3-compatible server (MinIO, Spaces) with path-style keys.
func NewS3Storage(cfg config.S3Config) (FileStorage, error) {
	sdkCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	endpoint := endpointURL(cfg.Endpoint, cfg.UseSSL)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = DefaultPresignedURLExpiry
	}
	log.Printf("INFO: Media storage ready (bucket %q, endpoint %q, url expiry %s)", cfg.BucketName, endpoint, expiry)
	return &s3Storage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucketName:    cfg.BucketName,
		defaultExpiry: expiry,
	}, nil
}

// endpointURL adds a scheme to a bare host:port endpoint.
func endpointURL(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (s *s3Storage) expiry(d time.Duration) time.Duration {
	if d <= 0 {
		return s.defaultExpiry
	}
	return d
}

// GeneratePresignedUploadURL signs a PUT; the uploader must send the same Content-Type.
func (s *s3Storage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry(expires)))
	if err != nil {
		log.Printf("ERROR: Presign upload for %s: %v", objectKey, err)
		return "", fmt.Errorf("presign upload %s: %w", objectKey, err)
	}
	return req.URL, nil
}

func (s *s3Storage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.expiry(expires)))
	if err != nil {
		log.Printf("ERROR: Presign download for %s: %v", objectKey, err)
		return "", fmt.Errorf("presign download %s: %w", objectKey, err)
	}
	return req.URL, nil
}

func (s *s3Storage) DeleteObject(ctx context.Context, objectKey string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}); err != nil {
		log.Printf("ERROR: Delete media object %s: %v", objectKey, err)
		return fmt.Errorf("delete %s: %w", objectKey, err)
	}
	log.Printf("INFO: Deleted media object %s", objectKey)
	return nil
}
