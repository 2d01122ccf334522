package logutil

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gomod.pri/spellkit/notify"
)

type testNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *testNotifier) send(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, content)
	return nil
}

func (n *testNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

func TestHookWriter_WriteAndFlush(t *testing.T) {
	var out bytes.Buffer
	n := &testNotifier{}
	h := NewHookWriter(&out, Config{IntervalSec: 3600, Limit: 10}, n.send)

	_, _ = h.Write([]byte("2025-01-01T00:00:00Z info something\n"))
	_, _ = h.Write([]byte("2025-01-01T00:00:00Z error dictionary unavailable\n"))
	_, _ = h.Write([]byte("2025-01-01T00:00:01Z error dictionary unavailable\n"))
	_, _ = h.Write([]byte("2025-01-01T00:00:02Z error write failed\n"))
	h.Close()

	assert.Equal(t, 4, strings.Count(out.String(), "\n"))

	msgs := n.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "[x2] 2025-01-01T00:00:00Z error dictionary unavailable")
	assert.Contains(t, msgs[0], "error write failed")
	assert.NotContains(t, msgs[0], "info something")

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.records)
	assert.Empty(t, h.order)
}

func TestHookWriter_Limit(t *testing.T) {
	n := &testNotifier{}
	h := NewHookWriter(&bytes.Buffer{}, Config{IntervalSec: 3600, Limit: 1}, n.send)
	_, _ = h.Write([]byte("t1 error first\n"))
	_, _ = h.Write([]byte("t2 error second\n"))
	_, _ = h.Write([]byte("t3 error third\n"))
	h.Close()

	msgs := n.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "first")
	assert.NotContains(t, msgs[0], "second")
	assert.Contains(t, msgs[0], "skipped 2 more errors")
}

func TestHookWriter_NilSend(t *testing.T) {
	var out bytes.Buffer
	h := NewHookWriter(&out, Config{}, nil)
	_, err := h.Write([]byte("t error boom\n"))
	require.NoError(t, err)
	h.Close()
	assert.Equal(t, "t error boom\n", out.String())
}

func TestIsErrorLevelLog_Cases(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want bool
	}{
		{
			name: "plain level in second field",
			msg:  "2025-11-25T14:05:14.798+05:00 error load dictionary",
			want: true,
		},
		{
			name: "structured json level",
			msg:  `{"@timestamp":"2025-11-25T14:05:14.798+05:00","level":"error","content":"failed"}`,
			want: true,
		},
		{
			name: "kv style level",
			msg:  `time=2025-11-25T14:05:14.798+05:00 level=error msg="failed"`,
			want: true,
		},
		{
			name: "severe",
			msg:  "2025-11-25T14:05:14.798+05:00 severe disk full",
			want: true,
		},
		{
			name: "info level should be ignored",
			msg:  "2025-11-25T14:05:14.798+05:00 info normal log",
			want: false,
		},
		{
			name: "error word in content only",
			msg:  "2025-11-25T14:05:14.798+05:00 info no error here",
			want: false,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isErrorLevelLog(tt.msg))
		})
	}
}

func TestFingerprint_IgnoresTimestamp(t *testing.T) {
	a := fingerprint(`{"@timestamp":"1","level":"error","content":"x"}`)
	b := fingerprint(`{"@timestamp":"2","level":"error","content":"x"}`)
	assert.Equal(t, a, b)
	assert.Equal(t, fingerprint("t1 error x"), fingerprint("t2 error x"))
}

func TestNewHookWriter_Defaults(t *testing.T) {
	h := NewHookWriter(&bytes.Buffer{}, Config{}, nil)
	defer h.Close()
	assert.Equal(t, defaultInterval, h.interval)
	assert.Equal(t, defaultLimit, h.limit)
}

func TestHookWriter_CloseIsIdempotent(t *testing.T) {
	h := NewHookWriter(&bytes.Buffer{}, Config{IntervalSec: 1, Limit: 1}, nil)

	done := make(chan struct{})
	go func() {
		h.Close()
		h.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return in time")
	}
}

func TestConfig_NotificationConfig(t *testing.T) {
	c := Config{NotifyWebhook: "http://hook", NotifySecret: "s"}
	assert.True(t, c.Enabled())
	nc, err := c.NotificationConfig()
	require.NoError(t, err)
	assert.Equal(t, notify.DingTalk, nc.Type)
	assert.Equal(t, "http://hook", nc.Config.Webhook)

	c.NotifyChannel = "Feishu"
	nc, err = c.NotificationConfig()
	require.NoError(t, err)
	assert.Equal(t, notify.Feishu, nc.Type)

	c.NotifyChannel = "slack"
	_, err = c.NotificationConfig()
	assert.Error(t, err)
	assert.False(t, Config{}.Enabled())
}
