package kmscred

import (
	"errors"
	"fmt"
	"strings"
)

// Vendor names a secrets manager backend.
type Vendor string

// Mode selects where the vendor client gets its own credentials from.
type Mode string

const (
	VendorAliyun      Vendor = "aliyun"
	VendorAWS         Vendor = "aws"
	VendorHuaweiCloud Vendor = "huaweicloud"

	// ModeAKSK uses the static AccessKey/SecretKey pair.
	ModeAKSK Mode = "aksk"
	// ModeRAM uses the instance role or the vendor's default chain.
	ModeRAM Mode = "ram"
)

// ParseMode maps "" to ModeRAM and rejects anything unknown.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeRAM, nil
	case ModeAKSK, ModeRAM:
		return m, nil
	default:
		return "", fmt.Errorf("kmscred: invalid mode %q, must be %q or %q", s, ModeAKSK, ModeRAM)
	}
}

type Config struct {
	Vendor    Vendor
	Mode      Mode
	AccessKey string
	SecretKey string
	Region    string
}

// CheckKeys fails in aksk mode when a key is missing.
func (c Config) CheckKeys() error {
	if c.Mode == ModeAKSK && (c.AccessKey == "" || c.SecretKey == "") {
		return errors.New("kmscred: accessKey and secretKey are required for aksk mode")
	}
	return nil
}
