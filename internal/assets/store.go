package assets

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ignite/sitehub/internal/config"
)

// Store holds favicon blobs keyed by opaque asset ids. The registry
// stores only the id; URLs are derived at read time.
type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	URLFor(assetID string) string
	Delete(ctx context.Context, assetID string) error
	PresignUpload(ctx context.Context, contentType string) (*UploadTicket, error)
}

// UploadTicket is a one-time direct-to-bucket upload grant.
type UploadTicket struct {
	AssetID   string    `json:"asset_id"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

const keyPrefix = "favicons/"

const uploadTTL = 15 * time.Minute

// S3Store is the S3-backed blob store.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	region    string
	cdnDomain string
}

// NewS3Store creates an S3-backed store from the assets config.
func NewS3Store(ctx context.Context, cfg config.AssetsConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("assets: s3 bucket not configured")
	}

	var awsCfg aws.Config
	var err error
	if profile := cfg.GetAWSProfile(); profile != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		region:    cfg.AWSRegion,
		cdnDomain: cfg.CDNDomain,
	}, nil
}

func objectKey(assetID string) string {
	return keyPrefix + assetID
}

// Put stores a blob and returns its new asset id.
func (s *S3Store) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	assetID := uuid.New().String()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(assetID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting object to S3: %w", err)
	}
	return assetID, nil
}

// URLFor returns the public URL for an asset. The CDN domain is
// preferred; without one the bucket's virtual-hosted URL is used.
func (s *S3Store) URLFor(assetID string) string {
	if assetID == "" {
		return ""
	}
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, objectKey(assetID))
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey(assetID))
}

// Delete removes an asset's blob. Deleting a missing object is not an
// error in S3, which suits release-on-site-delete callers.
func (s *S3Store) Delete(ctx context.Context, assetID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(assetID)),
	})
	if err != nil {
		return fmt.Errorf("deleting object from S3: %w", err)
	}
	return nil
}

// PresignUpload mints a short-lived PUT URL so browsers upload favicons
// straight to the bucket.
func (s *S3Store) PresignUpload(ctx context.Context, contentType string) (*UploadTicket, error) {
	assetID := uuid.New().String()

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(assetID)),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadTTL))
	if err != nil {
		return nil, fmt.Errorf("presigning upload: %w", err)
	}

	return &UploadTicket{
		AssetID:   assetID,
		UploadURL: req.URL,
		ExpiresAt: time.Now().UTC().Add(uploadTTL),
	}, nil
}
