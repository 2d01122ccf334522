// Package aws resolves secrets from AWS Secrets Manager.
package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"gomod.pri/spellkit/kmscred"
)

type KMSClient struct {
	client *secretsmanager.Client
}

// New builds a client; ModeRAM uses the default credential chain (env,
// shared credentials, instance role).
func New(cfg kmscred.Config) (*KMSClient, error) {
	if cfg.Region == "" {
		return nil, errors.New("aws kms: region is required")
	}
	if err := cfg.CheckKeys(); err != nil {
		return nil, err
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	switch cfg.Mode {
	case kmscred.ModeRAM:
	case kmscred.ModeAKSK:
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	default:
		return nil, fmt.Errorf("aws kms: invalid mode %q", cfg.Mode)
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws kms: load config: %w", err)
	}
	return &KMSClient{client: secretsmanager.NewFromConfig(awsCfg)}, nil
}

func (c *KMSClient) GetSecretValue(ctx context.Context, secretName string) (string, error) {
	out, err := c.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", fmt.Errorf("aws kms: get secret %s: %w", secretName, err)
	}

	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	return string(out.SecretBinary), nil
}
