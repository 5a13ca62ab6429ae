package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"house-swap-app/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	awscreds "github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore keeps the binary house images; the database only holds URLs.
type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, size int64, filename, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

type StorageService struct {
	cfg         *config.Config
	s3Client    *s3.S3
	minioClient *minio.Client
	useMinIO    bool
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	service := &StorageService{cfg: cfg}

	// MinIO wins when configured
	if cfg.MinIOEndpoint != "" {
		service.useMinIO = true
		minioClient, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MinIO client: %w", err)
		}
		service.minioClient = minioClient
	} else {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
			Credentials: awscreds.NewStaticCredentials(
				cfg.AWSAccessKeyID,
				cfg.AWSSecretAccessKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		service.s3Client = s3.New(sess)
	}

	return service, nil
}

// Upload stores the image under a fresh object key and returns its public URL.
func (s *StorageService) Upload(ctx context.Context, file io.Reader, size int64, filename, contentType string) (string, error) {
	key := houseImageKey(filename)
	if s.useMinIO {
		return s.uploadToMinIO(ctx, file, size, key, contentType)
	}
	return s.uploadToS3(ctx, file, key, contentType)
}

func (s *StorageService) Delete(ctx context.Context, url string) error {
	key := s.extractKeyFromURL(url)
	if key == "" {
		return fmt.Errorf("invalid file URL: %s", url)
	}

	if s.useMinIO {
		return s.deleteFromMinIO(ctx, key)
	}
	return s.deleteFromS3(ctx, key)
}

// EnsureBucket creates the image bucket when it does not exist yet.
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	if s.useMinIO {
		exists, err := s.minioClient.BucketExists(ctx, s.cfg.S3Bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket existence: %w", err)
		}
		if !exists {
			if err := s.minioClient.MakeBucket(ctx, s.cfg.S3Bucket, minio.MakeBucketOptions{Region: s.cfg.AWSRegion}); err != nil {
				return fmt.Errorf("failed to create MinIO bucket: %w", err)
			}
		}
		return nil
	}

	_, err := s.s3Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.cfg.S3Bucket),
	})
	if err != nil && !strings.Contains(err.Error(), s3.ErrCodeBucketAlreadyOwnedByYou) {
		return fmt.Errorf("failed to create S3 bucket: %w", err)
	}
	return nil
}

func (s *StorageService) uploadToS3(ctx context.Context, file io.Reader, key, contentType string) (string, error) {
	// PutObject needs a ReadSeeker
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileBytes),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.AWSRegion, key), nil
}

func (s *StorageService) uploadToMinIO(ctx context.Context, file io.Reader, size int64, key, contentType string) (string, error) {
	_, err := s.minioClient.PutObject(ctx, s.cfg.S3Bucket, key, file, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	protocol := "http"
	if s.cfg.MinIOUseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.cfg.MinIOEndpoint, s.cfg.S3Bucket, key), nil
}

func (s *StorageService) deleteFromS3(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *StorageService) deleteFromMinIO(ctx context.Context, key string) error {
	if err := s.minioClient.RemoveObject(ctx, s.cfg.S3Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

// extractKeyFromURL strips the host (and, for MinIO, the bucket) from a URL
// produced by Upload.
func (s *StorageService) extractKeyFromURL(url string) string {
	if s.useMinIO {
		marker := "/" + s.cfg.S3Bucket + "/"
		if i := strings.Index(url, s.cfg.MinIOEndpoint+marker); i >= 0 {
			return url[i+len(s.cfg.MinIOEndpoint)+len(marker):]
		}
		return ""
	}

	if strings.Contains(url, "amazonaws.com/") {
		return url[strings.Index(url, "amazonaws.com/")+len("amazonaws.com/"):]
	}
	return ""
}

func houseImageKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return "houses/" + uuid.NewString() + ext
}
