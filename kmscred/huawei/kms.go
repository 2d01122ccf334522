// Package huawei resolves secrets from Huawei Cloud CSMS (Cloud Secret
// Management Service).
package huawei

import (
	"context"
	"errors"
	"fmt"

	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth"
	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/basic"
	"github.com/huaweicloud/huaweicloud-sdk-go-v3/core/auth/provider"
	csms "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/csms/v1"
	"github.com/huaweicloud/huaweicloud-sdk-go-v3/services/csms/v1/model"
	csmsRegion "github.com/huaweicloud/huaweicloud-sdk-go-v3/services/csms/v1/region"

	"gomod.pri/spellkit/kmscred"
)

// latestVersion asks CSMS for the current version of a secret.
const latestVersion = "latest"

type KMSClient struct {
	client *csms.CsmsClient
}

// New builds a CSMS client. ModeRAM reads credentials from the ECS metadata
// service; ModeAKSK uses the configured key pair.
func New(cfg kmscred.Config) (*KMSClient, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("huawei csms: region is required for %s mode", cfg.Mode)
	}

	var (
		cred auth.ICredential
		err  error
	)
	switch cfg.Mode {
	case kmscred.ModeRAM:
		cred, err = provider.BasicCredentialMetadataProvider().GetCredentials()
		if err != nil {
			return nil, fmt.Errorf("huawei csms: metadata credentials: %w", err)
		}
	case kmscred.ModeAKSK:
		if err = cfg.CheckKeys(); err != nil {
			return nil, err
		}
		cred, err = basic.NewCredentialsBuilder().
			WithAk(cfg.AccessKey).
			WithSk(cfg.SecretKey).
			SafeBuild()
		if err != nil {
			return nil, fmt.Errorf("huawei csms: credentials: %w", err)
		}
	default:
		return nil, fmt.Errorf("huawei csms: invalid mode %q", cfg.Mode)
	}

	reg, err := csmsRegion.SafeValueOf(cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("huawei csms: region %s: %w", cfg.Region, err)
	}

	hcClient, err := csms.CsmsClientBuilder().
		WithRegion(reg).
		WithCredential(cred).
		SafeBuild()
	if err != nil {
		return nil, fmt.Errorf("huawei csms: build client: %w", err)
	}
	return &KMSClient{client: csms.NewCsmsClient(hcClient)}, nil
}

// GetSecretValue returns the latest version of secretName. The sdk call is
// not context aware.
func (c *KMSClient) GetSecretValue(_ context.Context, secretName string) (string, error) {
	resp, err := c.client.ShowSecretVersion(&model.ShowSecretVersionRequest{
		SecretName: secretName,
		VersionId:  latestVersion,
	})
	if err != nil {
		return "", fmt.Errorf("huawei csms: get secret %s: %w", secretName, err)
	}

	if resp.Version == nil {
		return "", fmt.Errorf("huawei csms: secret %s has no version", secretName)
	}
	switch {
	case resp.Version.SecretString != nil:
		return *resp.Version.SecretString, nil
	case resp.Version.SecretBinary != nil:
		return *resp.Version.SecretBinary, nil
	default:
		return "", errors.New("huawei csms: secret " + secretName + " is empty")
	}
}
