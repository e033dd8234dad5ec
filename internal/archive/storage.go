package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rakshalabs/raksha/internal/setup/config"
	"go.uber.org/zap"
)

var (
	// ErrUnknownProvider is returned when the configured storage provider
	// does not match any implementation.
	ErrUnknownProvider = errors.New("unknown storage provider")

	// ErrMissingS3Config is returned when the S3 provider is selected
	// without connection details.
	ErrMissingS3Config = errors.New("missing S3 configuration")
)

const (
	// DefaultLocalDir is where local archives land when no directory is
	// configured.
	DefaultLocalDir = "storage/archives"

	defaultS3Bucket = "raksha-archives"

	// archiveContentType tags uploaded archive files. Every archive is a
	// JSON Lines dump.
	archiveContentType = "application/x-ndjson"
)

// StorageProvider persists archive files somewhere cold. Save returns the
// full path or address of the stored file so operators can find it later.
type StorageProvider interface {
	Name() string
	Save(ctx context.Context, filename string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

// NewProvider builds the storage provider named by configuration. The
// provider is chosen once at startup, never per request.
func NewProvider(cfg *config.Archive, logger *zap.Logger) (StorageProvider, error) {
	switch strings.ToUpper(cfg.Provider) {
	case "", "LOCAL":
		dir := cfg.LocalDir
		if dir == "" {
			dir = DefaultLocalDir
		}

		return NewLocalStorage(dir), nil
	case "S3":
		return NewS3Storage(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// LocalStorage writes archive files to a directory on disk.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a local disk provider rooted at baseDir.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

// Name returns the configuration name of the provider.
func (s *LocalStorage) Name() string { return "LOCAL" }

// Save writes the file under the base directory, creating it if needed.
func (s *LocalStorage) Save(_ context.Context, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := filepath.Join(s.baseDir, filename)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	return path, nil
}

// Delete removes a previously saved archive file.
func (s *LocalStorage) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete archive file: %w", err)
	}

	return nil
}

// S3Storage uploads archive files to an S3-compatible bucket. Cloudflare R2
// and MinIO both speak this dialect, so the endpoint decides the vendor.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewS3Storage creates the S3 provider from configuration. The client is
// lazy: no connection is made until the first upload.
func NewS3Storage(cfg *config.Archive, logger *zap.Logger) (*S3Storage, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("%w: s3_endpoint is required", ErrMissingS3Config)
	}

	// Clean endpoint URL
	endpoint := strings.TrimPrefix(cfg.S3Endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	bucket := cfg.S3Bucket
	if bucket == "" {
		bucket = defaultS3Bucket
	}

	return &S3Storage{
		client: client,
		bucket: bucket,
		logger: logger.Named("s3_storage"),
	}, nil
}

// Name returns the configuration name of the provider.
func (s *S3Storage) Name() string { return "S3" }

// Save uploads the file and returns its bucket address.
func (s *S3Storage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, filename, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: archiveContentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive object %s: %w", filename, err)
	}

	s.logger.Debug("Uploaded archive file",
		zap.String("bucket", s.bucket),
		zap.String("filename", filename),
		zap.Int("bytes", len(data)))

	return fmt.Sprintf("s3://%s/%s", s.bucket, filename), nil
}

// Delete removes an uploaded archive file. Accepts either the bare object
// key or the address Save returned.
func (s *S3Storage) Delete(ctx context.Context, path string) error {
	key := strings.TrimPrefix(path, fmt.Sprintf("s3://%s/", s.bucket))
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete archive object %s: %w", key, err)
	}

	return nil
}
