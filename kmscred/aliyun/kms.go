// Package aliyun resolves secrets from Aliyun Secrets Manager.
package aliyun

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliyun/aliyun-secretsmanager-client-go/sdk"
	"github.com/aliyun/aliyun-secretsmanager-client-go/sdk/service"

	"gomod.pri/spellkit/kmscred"
)

type KMSClient struct {
	client *sdk.SecretManagerCacheClient
}

// New builds a cache client; ModeRAM reads the ECS instance role.
func New(cfg kmscred.Config) (*KMSClient, error) {
	switch cfg.Mode {
	case kmscred.ModeRAM:
		client, err := sdk.NewClient()
		if err != nil {
			return nil, fmt.Errorf("aliyun kms: ram client: %w", err)
		}
		return &KMSClient{client: client}, nil

	case kmscred.ModeAKSK:
		if err := cfg.CheckKeys(); err != nil {
			return nil, err
		}
		if cfg.Region == "" {
			return nil, errors.New("aliyun kms: region is required for aksk mode")
		}
		client, err := sdk.NewSecretCacheClientBuilder(
			service.NewDefaultSecretManagerClientBuilder().
				Standard().
				WithAccessKey(cfg.AccessKey, cfg.SecretKey).
				WithRegion(cfg.Region).
				Build(),
		).Build()
		if err != nil {
			return nil, fmt.Errorf("aliyun kms: aksk client: %w", err)
		}
		return &KMSClient{client: client}, nil

	default:
		return nil, fmt.Errorf("aliyun kms: invalid mode %q", cfg.Mode)
	}
}

// GetSecretValue ignores ctx; the sdk call is not context aware.
func (c *KMSClient) GetSecretValue(_ context.Context, secretName string) (string, error) {
	info, err := c.client.GetSecretInfo(secretName)
	if err != nil {
		return "", fmt.Errorf("aliyun kms: get secret %s: %w", secretName, err)
	}
	return info.SecretValue, nil
}
