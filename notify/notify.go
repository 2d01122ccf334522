// Package notify delivers user-facing alerts, such as a missing or unwritable
// dictionary, to chat robots.
package notify

import (
	"context"
	"fmt"
	"strings"
)

type NotificationType string

const (
	DingTalk NotificationType = "dingtalk"
	Feishu   NotificationType = "feishu"
)

// ParseType maps "" to DingTalk and is case-insensitive.
func ParseType(s string) (NotificationType, error) {
	switch t := NotificationType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return DingTalk, nil
	case DingTalk, Feishu:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported notification type: %s", s)
	}
}

type NotificationConfig struct {
	Type   NotificationType
	Config Config
}

type Config struct {
	Webhook string // robot webhook, including the access token for dingtalk
	Secret  string // signing secret; required by feishu
}

type Notification interface {
	SendText(ctx context.Context, content string, isAtAll bool, atMobiles []string) error
	SendCard(ctx context.Context, title, content string, isAtAll bool) error
}

func NewNotification(cfg NotificationConfig) (Notification, error) {
	switch cfg.Type {
	case DingTalk:
		return NewDingTalkNotification(cfg.Config)
	case Feishu:
		return NewFeishuNotification(cfg.Config)
	default:
		return nil, fmt.Errorf("unsupported notification type: %s", cfg.Type)
	}
}
