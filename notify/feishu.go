package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gomod.pri/spellkit/xhttp"
)

type FeishuNotification struct {
	webhook string
	secret  string
	client  *xhttp.Client
	now     func() time.Time
}

func NewFeishuNotification(cfg Config) (Notification, error) {
	if cfg.Webhook == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("feishu webhook or secret is empty")
	}
	return &FeishuNotification{
		webhook: cfg.Webhook,
		secret:  cfg.Secret,
		client:  xhttp.NewClient(),
		now:     time.Now,
	}, nil
}

// SendText ignores atMobiles; feishu robots can only mention everyone.
func (f *FeishuNotification) SendText(ctx context.Context, content string, isAtAll bool, atMobiles []string) error {
	msg := feishuText{MsgType: "text"}
	msg.Content.Text = content
	if isAtAll {
		msg.Content.Text += `<at user_id="all">Everyone</at>`
	}
	msg.Timestamp, msg.Sign = f.sign()
	return f.send(ctx, msg)
}

func (f *FeishuNotification) SendCard(ctx context.Context, title, content string, isAtAll bool) error {
	msg := feishuCard{MsgType: "interactive"}
	msg.Timestamp, msg.Sign = f.sign()

	msg.Card.Config.EnableForward = true
	msg.Card.Config.WideScreenMode = true
	msg.Card.Header.Title.Tag = "plain_text"
	msg.Card.Header.Title.Content = title
	msg.Card.Header.Template = "blue"
	if isAtAll {
		msg.Card.Header.Template = "red"
		content += `<at id=all>Everyone</at>`
	}

	hostname, _ := os.Hostname()
	msg.Card.Elements = append(msg.Card.Elements, feishuElement{
		Tag:     "markdown",
		Content: fmt.Sprintf("Hostname: [%s]\n%s\n", hostname, content),
	})
	return f.send(ctx, msg)
}

// sign uses "timestamp\nsecret" as the hmac key over an empty message.
func (f *FeishuNotification) sign() (string, string) {
	ts := strconv.FormatInt(f.now().Unix(), 10)
	h := hmac.New(sha256.New, []byte(ts+"\n"+f.secret))
	return ts, base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (f *FeishuNotification) send(ctx context.Context, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := f.client.Post(ctx, f.webhook, map[string]string{
		"Content-Type": "application/json;charset=UTF-8",
	}, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var res feishuResponse
	if err = json.Unmarshal(body, &res); err != nil {
		return err
	}
	if res.Code != 0 {
		return fmt.Errorf("feishu: %d %s", res.Code, res.Msg)
	}
	return nil
}

type feishuText struct {
	MsgType string `json:"msg_type"`
	Content struct {
		Text string `json:"text"`
	} `json:"content"`
	Timestamp string `json:"timestamp"`
	Sign      string `json:"sign"`
}

type feishuCard struct {
	MsgType   string `json:"msg_type"`
	Timestamp string `json:"timestamp"`
	Sign      string `json:"sign"`
	Card      struct {
		Config struct {
			WideScreenMode bool `json:"wide_screen_mode"`
			EnableForward  bool `json:"enable_forward"`
		} `json:"config"`
		Header struct {
			Template string `json:"template"`
			Title    struct {
				Tag     string `json:"tag"`
				Content string `json:"content"`
			} `json:"title"`
		} `json:"header"`
		Elements []feishuElement `json:"elements"`
	} `json:"card"`
}

type feishuElement struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type feishuResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
