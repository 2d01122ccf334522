// Package logutil tees error-level log lines to a chat robot in batches.
package logutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultInterval = time.Minute
	defaultLimit    = 20
	queueSize       = 1000
)

// SendFunc delivers one batch of aggregated error lines.
type SendFunc func(ctx context.Context, content string) error

type record struct {
	line  string
	count int
}

type HookWriter struct {
	w        io.Writer
	msgChan  chan string
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
	interval time.Duration
	limit    int
	send     SendFunc

	mu      sync.Mutex
	records map[string]*record
	order   []string
}

// NewHookWriter wraps w; error lines are additionally handed to send.
func NewHookWriter(w io.Writer, config Config, send SendFunc) *HookWriter {
	interval := time.Duration(config.IntervalSec) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}
	limit := config.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	hw := &HookWriter{
		w:        w,
		msgChan:  make(chan string, queueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		interval: interval,
		limit:    limit,
		send:     send,
		records:  make(map[string]*record),
	}

	go hw.runNotifier()
	return hw
}

func (h *HookWriter) Write(p []byte) (n int, err error) {
	msg := string(p)

	if h.send != nil && isErrorLevelLog(msg) {
		select {
		case h.msgChan <- msg:
		default:
			// queue full, the line still reaches w
		}
	}

	return h.w.Write(p)
}

func (h *HookWriter) runNotifier() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case msg := <-h.msgChan:
			h.add(msg)
		case <-ticker.C:
			h.flush()
		case <-h.quit:
			for {
				select {
				case msg := <-h.msgChan:
					h.add(msg)
				default:
					h.flush()
					return
				}
			}
		}
	}
}

func (h *HookWriter) add(msg string) {
	fp := fingerprint(msg)

	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.records[fp]; ok {
		r.count++
		return
	}
	h.records[fp] = &record{line: strings.TrimSpace(msg), count: 1}
	h.order = append(h.order, fp)
}

func (h *HookWriter) flush() {
	h.mu.Lock()
	if len(h.order) == 0 {
		h.mu.Unlock()
		return
	}

	var sb strings.Builder
	for i, fp := range h.order {
		if i == h.limit {
			fmt.Fprintf(&sb, "... skipped %d more errors\n", len(h.order)-h.limit)
			break
		}
		r := h.records[fp]
		if r.count > 1 {
			fmt.Fprintf(&sb, "[x%d] %s\n", r.count, r.line)
		} else {
			sb.WriteString(r.line)
			sb.WriteByte('\n')
		}
	}

	h.records = make(map[string]*record)
	h.order = nil
	h.mu.Unlock()

	// send must not log at error level or it would feed itself
	if err := h.send(context.Background(), sb.String()); err != nil {
		logx.Infof("log hook: send notification failed: %v", err)
	}
}

// Close flushes pending lines and stops the notifier. Safe to call twice.
func (h *HookWriter) Close() {
	h.once.Do(func() {
		close(h.quit)
		<-h.done
	})
}

func isErrorLevelLog(msg string) bool {
	trimmed := strings.TrimSpace(msg)
	if strings.HasPrefix(trimmed, "{") {
		var entry struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal([]byte(trimmed), &entry); err == nil {
			return isErrorLevel(entry.Level)
		}
	}

	fields := strings.Fields(trimmed)
	for _, f := range fields {
		if v, ok := strings.CutPrefix(f, "level="); ok {
			return isErrorLevel(strings.Trim(v, `"`))
		}
	}

	// plain: "<timestamp> <level> <content>"
	if len(fields) >= 2 {
		return isErrorLevel(fields[1])
	}
	return false
}

func isErrorLevel(level string) bool {
	switch strings.ToLower(level) {
	case "error", "fatal", "severe":
		return true
	}
	return false
}

// fingerprint drops the leading timestamp so repeats of one error collapse.
func fingerprint(msg string) string {
	trimmed := strings.TrimSpace(msg)
	if strings.HasPrefix(trimmed, "{") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(trimmed), &entry); err == nil {
			delete(entry, "@timestamp")
			delete(entry, "timestamp")
			delete(entry, "time")
			delete(entry, "trace")
			delete(entry, "span")
			b, _ := json.Marshal(entry)
			return string(b)
		}
	}
	if _, rest, ok := strings.Cut(trimmed, " "); ok {
		return rest
	}
	return trimmed
}
