package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"dieselhub/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

// MaxUploadFiles is the number of images accepted per upload request
const MaxUploadFiles = 10

var whitespaceRun = regexp.MustCompile(`\s+`)

// ObjectStore keeps product images
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// StorageService stores product images in an S3-compatible bucket
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
	baseURL  string
}

// NewStorageService creates a storage service from the S3 settings
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" || cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 configuration missing")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.S3Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.DisableSSL = aws.Bool(strings.HasPrefix(cfg.S3Endpoint, "http://"))
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewStorageServiceWithClient(s3.New(sess), cfg.S3Bucket, publicBaseURL(cfg)), nil
}

// NewStorageServiceWithClient wires an existing S3 client
func NewStorageServiceWithClient(client s3iface.S3API, bucket, baseURL string) *StorageService {
	return &StorageService{
		s3Client: client,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// publicBaseURL prefers S3_PUBLIC_URL, then the path-style endpoint URL, then AWS virtual hosting
func publicBaseURL(cfg *config.Config) string {
	switch {
	case cfg.S3PublicURL != "":
		return cfg.S3PublicURL
	case cfg.S3Endpoint != "":
		return fmt.Sprintf("%s/%s", strings.TrimRight(cfg.S3Endpoint, "/"), cfg.S3Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
}

// Upload puts one object and returns its public URL
func (s *StorageService) Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("%s/%s", s.baseURL, key)
	log.Info().Str("key", key).Msg("Image uploaded to S3")
	return publicURL, nil
}

// Delete removes one object
func (s *StorageService) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	log.Info().Str("key", key).Msg("Image deleted from S3")
	return nil
}

// KeyFromURL recovers the object key of a URL produced by Upload or pointing into the bucket
func (s *StorageService) KeyFromURL(url string) (string, bool) {
	if strings.HasPrefix(url, s.baseURL+"/") {
		return strings.TrimPrefix(url, s.baseURL+"/"), true
	}
	marker := "/" + s.bucket + "/"
	if idx := strings.Index(url, marker); idx != -1 {
		return url[idx+len(marker):], true
	}
	return "", false
}

// ImageKey builds "<productID>/<unixms>-<index>-<name>" with whitespace runs replaced by '_'
func ImageKey(productID uint, at time.Time, index int, filename string) string {
	if filename == "" {
		filename = "img"
	}
	return fmt.Sprintf("%d/%d-%d-%s", productID, at.UnixMilli(), index, whitespaceRun.ReplaceAllString(filename, "_"))
}

// UploadImages stores every file under the product's prefix and returns the public URLs in order
func UploadImages(ctx context.Context, store ObjectStore, productID uint, files []*multipart.FileHeader, now time.Time) ([]string, error) {
	urls := make([]string, 0, len(files))
	for i, fileHeader := range files {
		url, err := uploadOne(ctx, store, ImageKey(productID, now, i, fileHeader.Filename), fileHeader)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func uploadOne(ctx context.Context, store ObjectStore, key string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		buffer := make([]byte, 512)
		n, err := file.Read(buffer)
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read file for content type detection: %w", err)
		}
		contentType = http.DetectContentType(buffer[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to rewind uploaded file: %w", err)
		}
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	return store.Upload(ctx, key, file, contentType)
}
