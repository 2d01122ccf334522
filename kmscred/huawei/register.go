package huawei

import "gomod.pri/spellkit/kmscred"

func init() {
	kmscred.Register(kmscred.VendorHuaweiCloud, func(cfg kmscred.Config) (kmscred.Client, error) {
		c, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
