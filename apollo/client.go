// Package apollo supplies live configuration, such as the dictionary path,
// from an apollo namespace.
package apollo

import (
	"fmt"

	"github.com/apolloconfig/agollo/v4"
	"github.com/apolloconfig/agollo/v4/env/config"
	"github.com/apolloconfig/agollo/v4/storage"
)

const ApplicationNamespace = "application"

type Config struct {
	AppID     string `json:",optional"`
	Cluster   string `json:",default=default"`
	Addr      string `json:",optional"`
	Namespace string `json:",default=application"`
	Secret    string `json:",optional"`
}

func (c Config) Enabled() bool {
	return c.AppID != "" && c.Addr != ""
}

type Client struct {
	client    agollo.Client
	namespace string
}

func NewClient(conf Config, listeners ...storage.ChangeListener) (*Client, error) {
	namespace := conf.Namespace
	if namespace == "" {
		namespace = ApplicationNamespace
	}

	client, err := agollo.StartWithConfig(func() (*config.AppConfig, error) {
		return &config.AppConfig{
			AppID:          conf.AppID,
			Cluster:        conf.Cluster,
			NamespaceName:  namespace,
			IP:             conf.Addr,
			Secret:         conf.Secret,
			IsBackupConfig: true,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create apollo client error: %w", err)
	}

	for _, listener := range listeners {
		client.AddChangeListener(listener)
	}

	return &Client{client: client, namespace: namespace}, nil
}

// Value returns key from the configured namespace, "" if absent.
func (c *Client) Value(key string) string {
	cfg := c.client.GetConfig(c.namespace)
	if cfg == nil {
		return ""
	}
	return cfg.GetValue(key)
}

func (c *Client) AddChangeListener(listener storage.ChangeListener) {
	c.client.AddChangeListener(listener)
}

func (c *Client) Close() {
	c.client.Close()
}
