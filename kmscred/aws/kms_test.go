package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomod.pri/spellkit/kmscred"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(kmscred.Config{Mode: kmscred.ModeAKSK, AccessKey: "ak", SecretKey: "sk"})
	assert.ErrorContains(t, err, "region is required")

	_, err = New(kmscred.Config{Mode: kmscred.ModeAKSK, SecretKey: "sk", Region: "us-east-1"})
	assert.ErrorContains(t, err, "required for aksk mode")

	_, err = New(kmscred.Config{Mode: "token", Region: "us-east-1"})
	assert.ErrorContains(t, err, "invalid mode")
}

func TestNew_StaticKeys(t *testing.T) {
	c, err := New(kmscred.Config{Mode: kmscred.ModeAKSK, AccessKey: "ak", SecretKey: "sk", Region: "us-east-1"})
	require.NoError(t, err)
	assert.NotNil(t, c.client)
}

func TestRegistered(t *testing.T) {
	_, err := kmscred.New(kmscred.Config{Vendor: kmscred.VendorAWS, Mode: kmscred.ModeAKSK})
	assert.ErrorContains(t, err, "region is required")
}
