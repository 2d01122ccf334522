// Package s3 stores dictionary objects in S3 or an S3-compatible endpoint.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"gomod.pri/spellkit/storage/types"
)

type Client struct {
	api    *s3.Client
	bucket string
	app    string
}

// NewClient uses static keys when AccessKey is set and the default
// credential chain otherwise. Path-style addressing keeps MinIO working.
func NewClient(ctx context.Context, cfg types.Config) (*Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Client{api: api, bucket: string(cfg.Bucket), app: cfg.App}, nil
}

func (c *Client) key(remote string) *string {
	return aws.String(types.BuildKey(c.app, remote))
}

func (c *Client) UploadStream(ctx context.Context, remote string, stream io.Reader) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         c.key(remote),
		Body:        stream,
		ContentType: aws.String(types.ContentType),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", remote, err)
	}
	return nil
}

func (c *Client) DownloadStream(ctx context.Context, remote string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    c.key(remote),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3: get %s: %w", remote, types.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("s3: get %s: %w", remote, err)
	}
	return out.Body, nil
}
