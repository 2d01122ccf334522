package logutil

import "gomod.pri/spellkit/notify"

type Config struct {
	IntervalSec   int64  `json:",default=60"`
	Limit         int    `json:",default=20"`
	NotifyChannel string `json:",default=dingtalk,options=dingtalk|feishu"`
	NotifyWebhook string `json:",optional"`
	NotifySecret  string `json:",optional"`
}

// Enabled reports whether a webhook is configured.
func (c Config) Enabled() bool {
	return c.NotifyWebhook != ""
}

func (c Config) NotificationConfig() (notify.NotificationConfig, error) {
	channel, err := notify.ParseType(c.NotifyChannel)
	if err != nil {
		return notify.NotificationConfig{}, err
	}
	return notify.NotificationConfig{
		Type: channel,
		Config: notify.Config{
			Webhook: c.NotifyWebhook,
			Secret:  c.NotifySecret,
		},
	}, nil
}
