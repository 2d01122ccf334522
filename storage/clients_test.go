package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomod.pri/spellkit/kmscred"
	"gomod.pri/spellkit/storage/obs"
	"gomod.pri/spellkit/storage/oss"
	"gomod.pri/spellkit/storage/s3"
	storagetypes "gomod.pri/spellkit/storage/types"
	"gomod.pri/spellkit/xerror"
)

func TestProviderClients_Construct(t *testing.T) {
	cfg := storagetypes.Config{
		Endpoint:  "http://127.0.0.1:9000",
		Region:    "us-east-1",
		Bucket:    "dictionaries",
		App:       "spellkit",
		AccessKey: "ak",
		SecretKey: "sk",
	}

	_, err := s3.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	_, err = oss.NewClient(cfg)
	require.NoError(t, err)
	_, err = obs.NewClient(cfg)
	require.NoError(t, err)
}

func TestProviderClients_Validation(t *testing.T) {
	_, err := oss.NewClient(storagetypes.Config{Region: "cn-hangzhou"})
	assert.ErrorContains(t, err, "access key")
	_, err = obs.NewClient(storagetypes.Config{})
	assert.ErrorContains(t, err, "endpoint is required")
}

func TestNewStorage_WrapsProvider(t *testing.T) {
	_, err := NewStorage(context.Background(), storagetypes.Config{Provider: "OBS"})
	require.Error(t, err)
	assert.Equal(t, "obs", xerror.GetProvider(err))
}

const vendorStatic kmscred.Vendor = "static-test"

type staticSecrets struct {
	cfg kmscred.Config
}

func (s *staticSecrets) GetSecretValue(_ context.Context, name string) (string, error) {
	return "secret-of-" + name, nil
}

var (
	registerStatic sync.Once
	lastSecrets    *staticSecrets
)

func useStaticSecrets() {
	registerStatic.Do(func() {
		kmscred.Register(vendorStatic, func(cfg kmscred.Config) (kmscred.Client, error) {
			if err := cfg.CheckKeys(); err != nil {
				return nil, err
			}
			lastSecrets = &staticSecrets{cfg: cfg}
			return lastSecrets, nil
		})
	})
}

func TestResolveSecret_AKSK(t *testing.T) {
	useStaticSecrets()

	cfg, err := resolveSecret(context.Background(), storagetypes.Config{
		Region:       "us-east-1",
		AccessKey:    "AKIA",
		SecretName:   "dict-secret",
		KmsVendor:    "STATIC-TEST",
		KmsMode:      "aksk",
		KmsAccessKey: "kms-ak",
		KmsSecretKey: "kms-sk",
	})
	require.NoError(t, err)
	assert.Equal(t, "secret-of-dict-secret", cfg.SecretKey)
	assert.Equal(t, "AKIA", cfg.AccessKey)
	require.NotNil(t, lastSecrets)
	assert.Equal(t, kmscred.ModeAKSK, lastSecrets.cfg.Mode)
	assert.Equal(t, "kms-ak", lastSecrets.cfg.AccessKey)
	assert.Equal(t, "kms-sk", lastSecrets.cfg.SecretKey)
	assert.Equal(t, "us-east-1", lastSecrets.cfg.Region)

	_, err = resolveSecret(context.Background(), storagetypes.Config{
		SecretName:   "dict-secret",
		KmsVendor:    string(vendorStatic),
		KmsMode:      "aksk",
		KmsAccessKey: "kms-ak",
	})
	assert.ErrorContains(t, err, "required for aksk mode")
}

func TestNewStorage_ResolvesSecretBeforeProvider(t *testing.T) {
	useStaticSecrets()

	s, err := NewStorage(context.Background(), storagetypes.Config{
		Provider:     "s3",
		Endpoint:     "http://127.0.0.1:9000",
		Region:       "us-east-1",
		Bucket:       "dictionaries",
		AccessKey:    "AKIA",
		SecretName:   "dict-secret",
		KmsVendor:    string(vendorStatic),
		KmsMode:      "aksk",
		KmsAccessKey: "kms-ak",
		KmsSecretKey: "kms-sk",
	})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
