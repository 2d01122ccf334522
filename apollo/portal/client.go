// Package portal edits and releases apollo items through the portal OpenAPI.
package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"gomod.pri/spellkit/xhttp"
)

const (
	DefaultTimeout = 30 * time.Second
	APIPathFormat  = "/openapi/v1/envs/%s/apps/%s/clusters/%s/namespaces/%s"
)

type Config struct {
	PortalURL string `json:",optional"`
	Token     string `json:",optional"`
	AppID     string `json:",optional"`
	Env       string `json:",default=DEV"`
	Cluster   string `json:",default=default"`
	Namespace string `json:",default=application"`
	Operator  string `json:",default=apollo"`
}

func (c Config) Enabled() bool {
	return c.PortalURL != "" && c.AppID != ""
}

type Client struct {
	conf Config
	http *xhttp.Client
}

func NewClient(conf Config, opts ...xhttp.ClientOption) *Client {
	if conf.Cluster == "" {
		conf.Cluster = "default"
	}
	if conf.Namespace == "" {
		conf.Namespace = "application"
	}
	if conf.Operator == "" {
		conf.Operator = "apollo"
	}

	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(DefaultTimeout)}, opts...)
	return &Client{conf: conf, http: xhttp.NewClient(opts...)}
}

type Item struct {
	Key                      string `json:"key"`
	Value                    string `json:"value"`
	Comment                  string `json:"comment,omitempty"`
	DataChangeCreatedBy      string `json:"dataChangeCreatedBy,omitempty"`
	DataChangeLastModifiedBy string `json:"dataChangeLastModifiedBy,omitempty"`
}

type Release struct {
	ReleaseTitle   string `json:"releaseTitle"`
	ReleaseComment string `json:"releaseComment"`
	ReleasedBy     string `json:"releasedBy"`
}

var errEmptyKey = errors.New("configuration item key cannot be empty")

func (c *Client) CreateItem(ctx context.Context, key, value, comment string) error {
	if key == "" {
		return errEmptyKey
	}
	return c.do(ctx, http.MethodPost, c.itemURL(""), Item{
		Key:                 key,
		Value:               value,
		Comment:             comment,
		DataChangeCreatedBy: c.conf.Operator,
	}, nil)
}

func (c *Client) UpdateItem(ctx context.Context, key, value, comment string) error {
	if key == "" {
		return errEmptyKey
	}
	return c.do(ctx, http.MethodPut, c.itemURL(key), Item{
		Key:                      key,
		Value:                    value,
		Comment:                  comment,
		DataChangeLastModifiedBy: c.conf.Operator,
	}, nil)
}

func (c *Client) GetItem(ctx context.Context, key string) (*Item, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	var item Item
	if err := c.do(ctx, http.MethodGet, c.itemURL(key), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertItem updates key, creating it when the portal reports it missing.
func (c *Client) UpsertItem(ctx context.Context, key, value, comment string) error {
	err := c.UpdateItem(ctx, key, value, comment)
	if xhttp.StatusCode(err) == http.StatusNotFound {
		return c.CreateItem(ctx, key, value, comment)
	}
	return err
}

func (c *Client) Publish(ctx context.Context, title, comment string) error {
	if title == "" {
		return errors.New("release title cannot be empty")
	}
	return c.do(ctx, http.MethodPost, c.namespaceURL()+"/releases", Release{
		ReleaseTitle:   title,
		ReleaseComment: comment,
		ReleasedBy:     c.conf.Operator,
	}, nil)
}

func (c *Client) namespaceURL() string {
	return fmt.Sprintf("%s"+APIPathFormat,
		c.conf.PortalURL, c.conf.Env, c.conf.AppID, c.conf.Cluster, c.conf.Namespace)
}

func (c *Client) itemURL(key string) string {
	base := c.namespaceURL() + "/items"
	if key != "" {
		return base + "/" + url.PathEscape(key)
	}
	return base
}

func (c *Client) do(ctx context.Context, method, u string, payload, out any) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = data
	}

	resp, err := c.http.Do(ctx, method, u, map[string]string{
		"Content-Type":  "application/json;charset=UTF-8",
		"Authorization": c.conf.Token,
	}, body)
	if err != nil {
		return fmt.Errorf("apollo portal %s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	logx.WithContext(ctx).Debugf("apollo portal %s %s ok", method, u)

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
