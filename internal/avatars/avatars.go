// Package avatars issues presigned S3 upload URLs for profile pictures.
package avatars

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported avatar content type")

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	Bucket         string
	PublicURL      string
	ForcePathStyle bool
	TTL            time.Duration
}

// Upload is what the client needs to PUT an avatar and reference it later.
type Upload struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client presigns avatar uploads against an S3 compatible endpoint.
type Client struct {
	presign   *s3.PresignClient
	bucket    string
	endpoint  string
	publicURL string
	ttl       time.Duration
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("S3_ENDPOINT and S3_AVATAR_BUCKET are required")
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(30 * time.Second)),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Client{
		presign:   s3.NewPresignClient(api),
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		ttl:       cfg.TTL,
	}, nil
}

// PresignUpload returns a PUT URL for a new avatar object owned by userID.
func (c *Client) PresignUpload(ctx context.Context, userID uuid.UUID, contentType string) (*Upload, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	key := ObjectKey(userID, uuid.New(), ext)

	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = c.ttl
	})
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}

	return &Upload{
		UploadURL: req.URL,
		ObjectKey: key,
		PublicURL: c.objectURL(key),
		ExpiresAt: time.Now().Add(c.ttl).UTC(),
	}, nil
}

func (c *Client) objectURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// ObjectKey lays avatars out per user so one user's uploads never collide
// with another's.
func ObjectKey(userID, objectID uuid.UUID, ext string) string {
	return "avatars/" + userID.String() + "/" + objectID.String() + "." + ext
}
