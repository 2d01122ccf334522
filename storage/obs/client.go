// Package obs stores dictionary objects in Huawei Cloud OBS.
package obs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	huaweiObs "github.com/huaweicloud/huaweicloud-sdk-go-obs/obs"

	"gomod.pri/spellkit/storage/types"
)

type Client struct {
	api    *huaweiObs.ObsClient
	bucket string
	app    string
}

func NewClient(cfg types.Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("obs: endpoint is required")
	}
	api, err := huaweiObs.New(cfg.AccessKey, cfg.SecretKey, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("obs: create client: %w", err)
	}
	return &Client{api: api, bucket: string(cfg.Bucket), app: cfg.App}, nil
}

// UploadStream ignores ctx; the obs sdk is not context aware.
func (c *Client) UploadStream(_ context.Context, remote string, stream io.Reader) error {
	input := &huaweiObs.PutObjectInput{}
	input.Bucket = c.bucket
	input.Key = types.BuildKey(c.app, remote)
	input.Body = stream

	if _, err := c.api.PutObject(input); err != nil {
		return fmt.Errorf("obs: put %s: %w", remote, err)
	}
	return nil
}

func (c *Client) DownloadStream(_ context.Context, remote string) (io.ReadCloser, error) {
	input := &huaweiObs.GetObjectInput{}
	input.Bucket = c.bucket
	input.Key = types.BuildKey(c.app, remote)

	out, err := c.api.GetObject(input)
	if err != nil {
		if obsErr, ok := err.(huaweiObs.ObsError); ok && obsErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("obs: get %s: %w", remote, types.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("obs: get %s: %w", remote, err)
	}
	return out.Body, nil
}
