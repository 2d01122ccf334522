package types

import "errors"

// ErrObjectNotFound is wrapped by every provider when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ContentType of uploaded dictionaries.
const ContentType = "text/plain; charset=utf-8"

type StorageProvider string

const (
	StorageProviderOBS StorageProvider = "obs"
	StorageProviderOSS StorageProvider = "oss"
	StorageProviderS3  StorageProvider = "s3"
)

type Bucket string

type Config struct {
	Provider  string `json:",optional"`
	Endpoint  string `json:",optional"`
	Region    string `json:",optional"`
	Bucket    Bucket `json:",optional"`
	App       string `json:",optional"` // object key prefix
	AccessKey string `json:",optional"`
	SecretKey string `json:",optional"`
	// SecretName is looked up through kmscred when SecretKey is empty.
	SecretName string `json:",optional"`
	KmsVendor  string `json:",optional"`
	KmsMode    string `json:",default=ram"`
	// KmsAccessKey and KmsSecretKey authenticate the secrets manager itself
	// in aksk mode.
	KmsAccessKey string `json:",optional"`
	KmsSecretKey string `json:",optional"`
}

func (c Config) Enabled() bool {
	return c.Provider != "" && c.Bucket != ""
}

// BuildKey joins the app prefix and the remote name without double slashes.
func BuildKey(app, remote string) string {
	for len(remote) > 0 && remote[0] == '/' {
		remote = remote[1:]
	}
	for len(app) > 0 && app[len(app)-1] == '/' {
		app = app[:len(app)-1]
	}
	if app == "" {
		return remote
	}
	return app + "/" + remote
}
