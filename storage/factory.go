package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gomod.pri/spellkit/kmscred"
	"gomod.pri/spellkit/storage/obs"
	"gomod.pri/spellkit/storage/oss"
	"gomod.pri/spellkit/storage/s3"
	storagetypes "gomod.pri/spellkit/storage/types"
	"gomod.pri/spellkit/xerror"
)

type Storage interface {
	UploadStream(ctx context.Context, remote string, stream io.Reader) error
	DownloadStream(ctx context.Context, remote string) (io.ReadCloser, error)
}

func NewStorage(ctx context.Context, cfg storagetypes.Config) (Storage, error) {
	provider := storagetypes.StorageProvider(strings.ToLower(cfg.Provider))

	cfg, err := resolveSecret(ctx, cfg)
	if err != nil {
		return nil, xerror.WrapProviderError(string(provider), err)
	}

	var s Storage
	switch provider {
	case storagetypes.StorageProviderOBS:
		s, err = obs.NewClient(cfg)
	case storagetypes.StorageProviderOSS:
		s, err = oss.NewClient(cfg)
	case storagetypes.StorageProviderS3:
		s, err = s3.NewClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, xerror.WrapProviderError(string(provider), err)
	}
	return s, nil
}

// resolveSecret fills SecretKey from the secrets manager when only a secret
// name is configured.
func resolveSecret(ctx context.Context, cfg storagetypes.Config) (storagetypes.Config, error) {
	if cfg.SecretKey != "" || cfg.SecretName == "" {
		return cfg, nil
	}

	mode, err := kmscred.ParseMode(cfg.KmsMode)
	if err != nil {
		return cfg, err
	}

	client, err := kmscred.New(kmscred.Config{
		Vendor:    kmscred.Vendor(strings.ToLower(cfg.KmsVendor)),
		Mode:      mode,
		AccessKey: cfg.KmsAccessKey,
		SecretKey: cfg.KmsSecretKey,
		Region:    cfg.Region,
	})
	if err != nil {
		return cfg, err
	}

	secret, err := client.GetSecretValue(ctx, cfg.SecretName)
	if err != nil {
		return cfg, fmt.Errorf("resolve storage secret %s: %w", cfg.SecretName, err)
	}
	cfg.SecretKey = secret
	return cfg, nil
}
