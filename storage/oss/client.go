// Package oss stores dictionary objects in Aliyun OSS.
package oss

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"

	"gomod.pri/spellkit/storage/types"
)

type Client struct {
	api    *oss.Client
	bucket string
	app    string
}

func NewClient(cfg types.Config) (*Client, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("oss: access key and secret key are required")
	}

	ossCfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey)).
		WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		ossCfg = ossCfg.WithEndpoint(cfg.Endpoint)
	}

	return &Client{api: oss.NewClient(ossCfg), bucket: string(cfg.Bucket), app: cfg.App}, nil
}

func (c *Client) key(remote string) *string {
	return oss.Ptr(types.BuildKey(c.app, remote))
}

func (c *Client) UploadStream(ctx context.Context, remote string, stream io.Reader) error {
	_, err := c.api.PutObject(ctx, &oss.PutObjectRequest{
		Bucket:      oss.Ptr(c.bucket),
		Key:         c.key(remote),
		Body:        stream,
		ContentType: oss.Ptr(types.ContentType),
	})
	if err != nil {
		return fmt.Errorf("oss: put %s: %w", remote, err)
	}
	return nil
}

func (c *Client) DownloadStream(ctx context.Context, remote string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(c.bucket),
		Key:    c.key(remote),
	})
	if err != nil {
		var serr *oss.ServiceError
		if errors.As(err, &serr) && serr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("oss: get %s: %w", remote, types.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("oss: get %s: %w", remote, err)
	}
	return out.Body, nil
}
