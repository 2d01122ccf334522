package spell

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/zeromicro/go-zero/core/logc"

	"gomod.pri/spellkit/bus"
	"gomod.pri/spellkit/collector"
	"gomod.pri/spellkit/rocketmq"
	"gomod.pri/spellkit/xerror"
)

// ScanEvent is the wire form of one misspelling of a remote scan. Seq starts
// at 1 and orders the events of a scan. The last message of a scan has Done
// set and carries no misspelling.
type ScanEvent struct {
	ScanID string `json:"scan_id"`
	Seq    int    `json:"seq"`
	Done   bool   `json:"done,omitempty"`
	collector.MisspellingEvent
}

type remoteScan struct {
	c       *collector.Collector
	next    int
	pending map[int]ScanEvent
	done    bool
}

// EventHandler rebuilds remote scans from rocketmq messages, one collector
// per scan id. Messages may arrive out of order or concurrently; each scan
// applies them in Seq order and ignores redeliveries. A finished scan is
// published on bus.TopicScanFinished.
type EventHandler struct {
	mu    sync.Mutex
	bus   bus.Bus
	opts  []collector.Option
	scans map[string]*remoteScan
}

var _ rocketmq.ConsumeHandler[ScanEvent] = (*EventHandler)(nil)

// NewEventHandler returns a handler that announces finished scans on b.
// b may be nil.
func NewEventHandler(b bus.Bus, opts ...collector.Option) *EventHandler {
	return &EventHandler{
		bus:   b,
		opts:  opts,
		scans: make(map[string]*remoteScan),
	}
}

func (h *EventHandler) Consume(ctx context.Context, ev ScanEvent) error {
	if ev.ScanID == "" || ev.Seq < 1 {
		return xerror.New(xerror.CodeInvalidParams,
			fmt.Errorf("misspelling %q has no scan id or sequence", ev.Word))
	}

	h.mu.Lock()
	s := h.scan(ev.ScanID)
	if s.done || ev.Seq < s.next {
		h.mu.Unlock()
		logc.Infof(ctx, "scan %s: duplicate message %d ignored", ev.ScanID, ev.Seq)
		return nil
	}

	s.pending[ev.Seq] = ev
	var finished *collector.Result
	for {
		next, ok := s.pending[s.next]
		if !ok {
			break
		}
		delete(s.pending, s.next)
		s.next++
		if next.Done {
			s.done = true
			s.pending = nil
			finished = s.c.Result().Clone()
			break
		}
		s.c.OnMisspelling(next.Word, next.Suggestions)
	}
	h.mu.Unlock()

	if finished != nil && h.bus != nil {
		if err := h.bus.Publish(bus.TopicScanFinished, ctx, finished); err != nil {
			logc.Errorf(ctx, "scan %s: publish finished: %v", ev.ScanID, err)
		}
	}
	return nil
}

// scan must be called with h.mu held.
func (h *EventHandler) scan(id string) *remoteScan {
	s, ok := h.scans[id]
	if !ok {
		opts := append(append([]collector.Option{}, h.opts...),
			collector.WithResult(&collector.Result{ScanID: id}))
		s = &remoteScan{
			c:       collector.New(opts...),
			next:    1,
			pending: make(map[int]ScanEvent),
		}
		h.scans[id] = s
	}
	return s
}

func (h *EventHandler) ErrorHandler(ctx context.Context, ev ScanEvent, err error) {
	logc.Errorf(ctx, "scan %s: misspelling %q dropped: %v", ev.ScanID, ev.Word, err)
}

// Snapshot returns a copy of what has been collected for scanID so far, or
// nil for an unknown scan. done reports whether the scan's last message has
// been applied.
func (h *EventHandler) Snapshot(scanID string) (res *collector.Result, done bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.scans[scanID]
	if !ok {
		return nil, false
	}
	return s.c.Result().Clone(), s.done
}

// Finished returns copies of the completed scans ordered by scan id.
func (h *EventHandler) Finished() []*collector.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*collector.Result
	for _, s := range h.scans {
		if s.done {
			out = append(out, s.c.Result().Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScanID < out[j].ScanID })
	return out
}

// Forget drops everything held for scanID.
func (h *EventHandler) Forget(scanID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.scans, scanID)
}

type Publisher interface {
	Publish(ctx context.Context, topic rocketmq.Topic, msg []byte, opts ...rocketmq.PublishOptionFunc) error
}

// RemoteEmitter publishes every event of scanID to rocketmq, numbered and
// sharded by scan id. Calling done sends the closing message. Failures are
// logged.
func RemoteEmitter(ctx context.Context, p Publisher, scanID string) (emit collector.Emitter, done func()) {
	var seq int
	send := func(ev ScanEvent) {
		body, err := json.Marshal(ev)
		if err != nil {
			logc.Errorf(ctx, "scan %s: marshal misspelling %q: %v", scanID, ev.Word, err)
			return
		}
		if err = p.Publish(ctx, rocketmq.TopicMisspelling, body, rocketmq.WithShardingKey(scanID)); err != nil {
			logc.Errorf(ctx, "scan %s: publish message %d: %v", scanID, ev.Seq, err)
		}
	}

	emit = func(ev collector.MisspellingEvent) {
		seq++
		send(ScanEvent{ScanID: scanID, Seq: seq, MisspellingEvent: ev})
	}
	done = func() {
		seq++
		send(ScanEvent{ScanID: scanID, Seq: seq, Done: true})
	}
	return emit, done
}

// PublishScan runs engine over text locally and ships its events to
// rocketmq instead of a local collector. It returns the scan id. The scan is
// closed even when the engine fails, so consumers see the partial result.
func (s *Service) PublishScan(ctx context.Context, engine Engine, text string, p Publisher) (string, error) {
	scanID := s.newID()
	emit, done := RemoteEmitter(ctx, p, scanID)
	err := engine.Check(ctx, text, emit)
	done()
	return scanID, err
}
