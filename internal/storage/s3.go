package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/pkg/logger"
)

const (
	keyPrefix     = "media/"
	uploadTimeout = 60 * time.Second
	deleteTimeout = 10 * time.Second
)

// Asset is the result of a successful upload to the media host.
type Asset struct {
	URL      string
	RemoteID string
}

// MediaStore is the contract the video and user services consume.
type MediaStore interface {
	// Store uploads the file at localPath and returns its public location.
	// The local staging file is removed whether or not the upload succeeds.
	Store(ctx context.Context, localPath string) (Asset, error)

	// Remove deletes a remote asset best-effort and reports success. It
	// never surfaces an error to the caller.
	Remove(ctx context.Context, remoteID string) bool
}

// S3MediaStore implements MediaStore against an S3-compatible service.
type S3MediaStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	log      *logger.Logger
}

// NewS3MediaStore configures an uploader targeting the provided object store.
func NewS3MediaStore(ctx context.Context, cfg config.MediaConfig, log *logger.Logger) (*S3MediaStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("media store: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if strings.TrimSpace(cfg.Endpoint) != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3MediaStore{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		log:      log,
	}, nil
}

// Store uploads the file at localPath under a fresh uuid key and returns the
// public URL plus the remote identifier. The staging file is always removed,
// matching the behavior of the upload path this replaces.
func (s *S3MediaStore) Store(ctx context.Context, localPath string) (Asset, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			s.log.WithError(err).WithField("path", localPath).Warn("Failed to remove staging file")
		}
	}()

	file, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open staging file: %w", err)
	}
	defer file.Close()

	remoteID := uuid.New().String()
	key := keyPrefix + remoteID

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err = s.uploader.Upload(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Asset{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return Asset{
		URL:      fmt.Sprintf("%s/%s", s.baseURL, key),
		RemoteID: remoteID,
	}, nil
}

// Remove deletes the remote asset. Failures are logged and swallowed: the
// caller has already committed the state change the deletion trails behind.
func (s *S3MediaStore) Remove(ctx context.Context, remoteID string) bool {
	if remoteID == "" {
		return false
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	_, err := s.client.DeleteObject(deleteCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + remoteID),
	})
	if err != nil {
		s.log.WithError(err).WithField("remote_id", remoteID).Warn("Failed to delete remote asset")
		return false
	}

	return true
}

// RemoteIDFromURL derives the remote identifier from a stored asset URL: the
// last path segment with any extension stripped. Deletion therefore never
// needs a separately stored identifier.
func RemoteIDFromURL(rawURL string) string {
	segment := path.Base(strings.TrimSuffix(rawURL, "/"))
	if segment == "." || segment == "/" {
		return ""
	}
	if idx := strings.IndexByte(segment, '.'); idx >= 0 {
		segment = segment[:idx]
	}
	return segment
}
