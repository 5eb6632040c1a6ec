package r2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/HaiFongPan/upload-form/internal/config"
	"github.com/HaiFongPan/upload-form/internal/export"
)

// Client wraps the S3 client used to archive results in R2
type Client struct {
	s3Client *s3.Client
	config   *appconfig.R2Config
}

// NewClient creates a new R2 client from configuration
func NewClient(ctx context.Context, cfg *appconfig.R2Config) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("r2 archiving is disabled (set export.r2.enabled)")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(EndpointURL(cfg))
	})

	return &Client{
		s3Client: s3Client,
		config:   cfg,
	}, nil
}

// EndpointURL returns the configured endpoint, or the account's default
// R2 endpoint.
func EndpointURL(cfg *appconfig.R2Config) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
}

// GetBucketName returns the configured bucket name
func (c *Client) GetBucketName() string {
	return c.config.BucketName
}

// Sink returns an export sink that archives into the configured bucket
func (c *Client) Sink() export.R2Sink {
	return export.R2Sink{
		Client: c.s3Client,
		Bucket: c.config.BucketName,
		Prefix: c.config.Prefix,
	}
}
