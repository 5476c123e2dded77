package utils

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// Archiver copies scrape artifacts (data files, debug screenshots) to S3
type Archiver struct {
	bucket        string
	client        *s3.Client
	presignClient *s3.PresignClient
}

// NewArchiver initializes the S3 client
func NewArchiver(ctx context.Context, region, bucket string) (*Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %w", err)
	}

	log.WithField("bucket", bucket).Info("S3 Client Initialized")
	return NewArchiverFromConfig(cfg, bucket), nil
}

// NewArchiverFromConfig builds an archiver from an existing AWS config
func NewArchiverFromConfig(cfg aws.Config, bucket string) *Archiver {
	client := s3.NewFromConfig(cfg)
	return &Archiver{
		bucket:        bucket,
		client:        client,
		presignClient: s3.NewPresignClient(client),
	}
}

// Upload stores body under objectKey and returns the key
func (a *Archiver) Upload(ctx context.Context, body io.Reader, objectKey string, contentType string) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return objectKey, nil
}

// ArchiveURLTTL is how long a presigned archive link stays valid
const ArchiveURLTTL = time.Hour

// PresignedURL generates a presigned download URL for an object
func (a *Archiver) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	request, err := a.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(ArchiveURLTTL))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}

	return request.URL, nil
}

// ArchiveKey builds the object key for an artifact of a run
func ArchiveKey(keyword, runID, name string) string {
	return fmt.Sprintf("scrapes/%s/%s/%s", SafePathSegment(keyword), runID, name)
}
