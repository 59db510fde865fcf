// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/metrics"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds the category size limit")
	ErrFileTypeNotAllowed = errors.New("file type not allowed for category")
	ErrEmptyFile          = errors.New("empty file")
)

// FileRecorder persists upload metadata; SubmissionRepository implements it.
type FileRecorder interface {
	SaveFile(ctx context.Context, file *models.StoredFile) error
}

type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
	recorder FileRecorder
	now      func() time.Time
}

type UploadResult struct {
	URL      string              `json:"url"`
	Key      string              `json:"key"`
	Size     int64               `json:"size"`
	MimeType string              `json:"mime_type"`
	Checksum string              `json:"checksum"`
	Category models.FileCategory `json:"category"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(config *config.Config, recorder FileRecorder) (*StorageService, error) {
	svc := &StorageService{config: config, recorder: recorder, now: time.Now}
	if config.AWS.AccessKeyID == "" {
		// Files go to the local upload directory in development
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	svc.s3Client = s3.New(sess)
	return svc, nil
}

// UploadOptionsFor returns the limits of a category: logos are JPG up to the
// logo limit, every other document is PDF/JPG/PNG up to the document limit.
func (s *StorageService) UploadOptionsFor(category models.FileCategory) (UploadOptions, error) {
	switch category {
	case models.FileCategoryLogo:
		return UploadOptions{
			Folder:       string(category),
			MaxSize:      s.config.Upload.LogoMaxBytes,
			AllowedTypes: []string{".jpg", ".jpeg"},
		}, nil
	case models.FileCategoryApplicantIdentity, models.FileCategoryHolderIdentity,
		models.FileCategoryQualificationProof, models.FileCategoryPowerOfAttorney:
		return UploadOptions{
			Folder:       string(category),
			MaxSize:      s.config.Upload.DocumentMaxBytes,
			AllowedTypes: []string{".pdf", ".jpg", ".jpeg", ".png"},
		}, nil
	default:
		return UploadOptions{}, ErrUnknownCategory
	}
}

// UploadFile validates and stores one file for a session and records its metadata.
func (s *StorageService) UploadFile(ctx context.Context, sessionID uuid.UUID, category models.FileCategory, file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	options, err := s.UploadOptionsFor(category)
	if err != nil {
		return nil, err
	}

	if options.MaxSize > 0 && header.Size > options.MaxSize {
		metrics.Uploads.WithLabelValues(string(category), "too_large").Inc()
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrFileTooLarge, header.Size, options.MaxSize)
	}

	fileExt := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedType(fileExt, options.AllowedTypes) {
		metrics.Uploads.WithLabelValues(string(category), "type_not_allowed").Inc()
		return nil, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, fileExt)
	}

	// the declared size can lie; never read past the limit
	fileBytes, err := io.ReadAll(io.LimitReader(file, options.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(fileBytes)) > options.MaxSize {
		metrics.Uploads.WithLabelValues(string(category), "too_large").Inc()
		return nil, fmt.Errorf("%w: max %d", ErrFileTooLarge, options.MaxSize)
	}
	if len(fileBytes) == 0 {
		return nil, ErrEmptyFile
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(fileBytes)
	}

	key := s.generateFileName(header.Filename, options.Folder)

	var result *UploadResult
	if s.s3Client != nil {
		result, err = s.uploadToS3(ctx, fileBytes, key, contentType)
	} else {
		result, err = s.uploadToLocal(fileBytes, key, contentType)
	}
	if err != nil {
		metrics.Uploads.WithLabelValues(string(category), "failed").Inc()
		return nil, err
	}
	result.Category = category
	result.Checksum = utils.FileChecksum(fileBytes)

	if s.recorder != nil {
		err := s.recorder.SaveFile(ctx, &models.StoredFile{
			SessionID:    sessionID,
			Category:     category,
			OriginalName: header.Filename,
			MimeType:     contentType,
			Size:         result.Size,
			StorageKey:   result.Key,
			URL:          result.URL,
			Checksum:     result.Checksum,
		})
		if err != nil {
			// the object is stored; only the bookkeeping row is missing
			logrus.WithError(err).WithField("key", result.Key).Error("failed to record upload")
		}
	}

	metrics.Uploads.WithLabelValues(string(category), "stored").Inc()
	metrics.UploadBytes.WithLabelValues(string(category)).Add(float64(result.Size))
	return result, nil
}

func allowedType(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.config.Upload.LocalDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResult{
		URL:      strings.TrimRight(s.config.Upload.LocalBaseURL, "/") + "/" + key,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		return os.Remove(filepath.Join(s.config.Upload.LocalDir, filepath.FromSlash(key)))
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// generateFileName builds "<folder>/<yyyymmdd>_<uuid8><ext>".
func (s *StorageService) generateFileName(originalName, folder string) string {
	id := uuid.New()
	ext := strings.ToLower(filepath.Ext(originalName))
	timestamp := s.now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
