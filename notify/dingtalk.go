package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"gomod.pri/spellkit/xhttp"
)

type DingTalkNotification struct {
	webhook string
	secret  string
	client  *xhttp.Client
	now     func() time.Time
}

func NewDingTalkNotification(cfg Config) (Notification, error) {
	if strings.TrimSpace(cfg.Webhook) == "" {
		return nil, fmt.Errorf("webhook is empty")
	}
	return &DingTalkNotification{
		webhook: cfg.Webhook,
		secret:  cfg.Secret,
		client:  xhttp.NewClient(),
		now:     time.Now,
	}, nil
}

func (d *DingTalkNotification) SendText(ctx context.Context, content string, isAtAll bool, atMobiles []string) error {
	msg := &dingText{Msgtype: "text"}
	msg.Text.Content = content
	msg.At.AtMobiles = atMobiles
	msg.At.IsAtAll = isAtAll
	return d.send(ctx, msg)
}

func (d *DingTalkNotification) SendCard(ctx context.Context, title, content string, isAtAll bool) error {
	msg := &dingMarkdown{Msgtype: "markdown"}
	msg.Markdown.Title = title
	msg.Markdown.Text = fmt.Sprintf("### %s\n%s", title, content)
	msg.At.IsAtAll = isAtAll
	return d.send(ctx, msg)
}

// sign returns the signature for timestamp (milliseconds), url-escaped.
func (d *DingTalkNotification) sign(timestamp int64) string {
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, d.secret)
	h := hmac.New(sha256.New, []byte(d.secret))
	h.Write([]byte(stringToSign))
	return url.QueryEscape(base64.StdEncoding.EncodeToString(h.Sum(nil)))
}

func (d *DingTalkNotification) send(ctx context.Context, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	robotURL := d.webhook
	if d.secret != "" {
		ts := d.now().UnixMilli()
		robotURL = fmt.Sprintf("%s&timestamp=%d&sign=%s", d.webhook, ts, d.sign(ts))
	}

	resp, err := d.client.Post(ctx, robotURL, map[string]string{"Content-Type": "application/json"}, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var res talkResponse
	if err = json.Unmarshal(body, &res); err != nil {
		return err
	}
	if res.Code != 0 {
		return fmt.Errorf("dingtalk: %d %s", res.Code, res.Msg)
	}
	return nil
}

type dingAt struct {
	AtMobiles []string `json:"atMobiles"`
	IsAtAll   bool     `json:"isAtAll"`
}

type dingText struct {
	Msgtype string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
	At dingAt `json:"at"`
}

type dingMarkdown struct {
	Msgtype  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
	At dingAt `json:"at"`
}

type talkResponse struct {
	Code int    `json:"errcode"`
	Msg  string `json:"errmsg"`
}
