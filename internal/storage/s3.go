package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrUnsupportedImage is returned for uploads that are not a known image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Config holds the connection settings of an S3-compatible object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the prefix image URLs are built from. Defaults to the endpoint and bucket.
	PublicURL string
}

// Image is an uploaded fridge photo.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectClient is the part of *minio.Client used to store images.
type ObjectClient interface {
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

// ImageStore keeps fridge images in a bucket and hands out their public URLs.
type ImageStore struct {
	client    ObjectClient
	bucket    string
	publicURL string
}

// NewImageStore connects to the object store and makes sure the bucket exists.
func NewImageStore(ctx context.Context, cfg Config) (*ImageStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, errors.New("storage: endpoint, access key, secret key and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: error checking bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("storage: failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return NewImageStoreWithClient(client, cfg.Bucket, publicURL), nil
}

// NewImageStoreWithClient creates an image store on top of an existing client.
func NewImageStoreWithClient(client ObjectClient, bucket, publicURL string) *ImageStore {
	return &ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// SaveFridgeImage uploads img under the fridge's prefix and returns its public URL.
func (s *ImageStore) SaveFridgeImage(ctx context.Context, fridgeID string, img Image) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(img.ContentType, ";")[0]))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("storage: %w: %q", ErrUnsupportedImage, img.ContentType)
	}
	if fileExt := strings.ToLower(filepath.Ext(img.Filename)); fileExt == ".jpeg" || fileExt == ext {
		ext = fileExt
	}

	key := ObjectKey(fridgeID, uuid.NewString()+ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, img.Body, img.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: failed to store image: %w", err)
	}

	return s.publicURL + "/" + key, nil
}

// ObjectKey is the bucket key of a fridge image.
func ObjectKey(fridgeID, name string) string {
	return fmt.Sprintf("fridges/%s/%s", fridgeID, name)
}
