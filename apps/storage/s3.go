package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
)

var (
	s3Client *s3.Client
	bucket   string
	enabled  bool
)

// Initialize sets up the S3 client
func Initialize() error {
	enabled = settings.Get("S3.ENABLED").Bool()
	if !enabled {
		log.Notice("S3 transcript archive is disabled")
		return nil
	}

	bucket = settings.Get("S3.BUCKET").String()
	endpoint := settings.Get("S3.ENDPOINT").String()
	region := settings.Get("S3.REGION").String()
	accessKey := settings.Get("S3.ACCESS_KEY").String()
	secretKey := settings.Get("S3.SECRET_KEY").String()

	if bucket == "" || endpoint == "" || accessKey == "" || secretKey == "" {
		return fmt.Errorf("S3 configuration incomplete")
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	// Custom endpoint keeps S3-compatible providers working
	cfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		EndpointResolverWithOptions: aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					SigningRegion:     region,
					HostnameImmutable: true,
				}, nil
			},
		),
	}

	s3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for S3-compatible services
	})

	log.Notice("S3 transcript archive initialized: bucket=%s, endpoint=%s", bucket, endpoint)
	return nil
}

// IsEnabled returns whether S3 storage is enabled
func IsEnabled() bool {
	return enabled && s3Client != nil
}

// Upload uploads an object to S3
func Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if !IsEnabled() {
		return fmt.Errorf("S3 storage not enabled")
	}

	_, err := s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})

	return err
}

// Download downloads an object from S3
func Download(ctx context.Context, key string) ([]byte, error) {
	if !IsEnabled() {
		return nil, fmt.Errorf("S3 storage not enabled")
	}

	result, err := s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

// Delete deletes an object from S3
func Delete(ctx context.Context, key string) error {
	if !IsEnabled() {
		return fmt.Errorf("S3 storage not enabled")
	}

	_, err := s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	return err
}

// Exists checks if an object exists in S3
func Exists(ctx context.Context, key string) (bool, error) {
	if !IsEnabled() {
		return false, fmt.Errorf("S3 storage not enabled")
	}

	_, err := s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// TranscriptKey derives a stable archive key from the video URL so the
// same video is archived once regardless of who requested it
func TranscriptKey(videoURL string) string {
	sum := sha256.Sum256([]byte(videoURL))
	return "transcripts/" + hex.EncodeToString(sum[:]) + ".txt"
}

// ArchiveTranscript stores a fetched transcript. Failures are logged but
// never propagated, archiving is best effort.
func ArchiveTranscript(ctx context.Context, videoURL, transcript string) {
	if !IsEnabled() {
		return
	}
	key := TranscriptKey(videoURL)
	if err := Upload(ctx, key, []byte(transcript), "text/plain; charset=utf-8"); err != nil {
		log.Warning("failed to archive transcript %s: %v", key, err)
	}
}

// LoadArchivedTranscript returns a previously archived transcript, or
// empty string when the archive has no copy
func LoadArchivedTranscript(ctx context.Context, videoURL string) string {
	if !IsEnabled() {
		return ""
	}
	key := TranscriptKey(videoURL)
	ok, err := Exists(ctx, key)
	if err != nil || !ok {
		return ""
	}
	data, err := Download(ctx, key)
	if err != nil {
		log.Warning("failed to load archived transcript %s: %v", key, err)
		return ""
	}
	return string(data)
}
