package spell

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomod.pri/spellkit/bus"
	"gomod.pri/spellkit/collector"
	"gomod.pri/spellkit/rocketmq"
	"gomod.pri/spellkit/xerror"
)

func scanEvent(scanID string, seq int, word string, suggestions ...string) ScanEvent {
	return ScanEvent{
		ScanID:           scanID,
		Seq:              seq,
		MisspellingEvent: collector.MisspellingEvent{Word: word, Suggestions: suggestions},
	}
}

func closing(scanID string, seq int) ScanEvent {
	return ScanEvent{ScanID: scanID, Seq: seq, Done: true}
}

func TestEventHandler_InterleavedScans(t *testing.T) {
	b := bus.New()
	var finished []*collector.Result
	require.NoError(t, b.Subscribe(bus.TopicScanFinished, func(_ context.Context, r *collector.Result) error {
		finished = append(finished, r)
		return nil
	}))

	h := NewEventHandler(b)
	ctx := context.Background()
	for _, ev := range []ScanEvent{
		scanEvent("a", 1, "teh", "the", "tea"),
		scanEvent("b", 1, "cta", "cat"),
		scanEvent("b", 2, "xqz"),
		scanEvent("a", 2, "xqz"),
		scanEvent("a", 3, "hte", "the"),
		closing("b", 3),
		closing("a", 4),
	} {
		require.NoError(t, h.Consume(ctx, ev))
	}

	a, done := h.Snapshot("a")
	require.True(t, done)
	assert.Equal(t, "a", a.ScanID)
	assert.Equal(t, "hte", a.LastWrongWord)
	assert.Equal(t, []string{"the", "tea", "the"}, a.Suggestions)
	assert.False(t, a.NoSuggestions)

	bRes, done := h.Snapshot("b")
	require.True(t, done)
	assert.Equal(t, "xqz", bRes.LastWrongWord)
	assert.Equal(t, []string{"cat"}, bRes.Suggestions)
	assert.True(t, bRes.NoSuggestions)

	require.Len(t, finished, 2)
	assert.Equal(t, "b", finished[0].ScanID)
	assert.Equal(t, "a", finished[1].ScanID)

	res := h.Finished()
	require.Len(t, res, 2)
	assert.Equal(t, "a", res[0].ScanID)
	assert.Equal(t, "b", res[1].ScanID)
}

func TestEventHandler_OutOfOrderAndDuplicates(t *testing.T) {
	h := NewEventHandler(nil)
	ctx := context.Background()

	require.NoError(t, h.Consume(ctx, scanEvent("s", 2, "xqz")))
	res, done := h.Snapshot("s")
	assert.False(t, done)
	assert.Empty(t, res.LastWrongWord)

	require.NoError(t, h.Consume(ctx, closing("s", 3)))
	require.NoError(t, h.Consume(ctx, scanEvent("s", 1, "teh", "the")))
	// redelivered
	require.NoError(t, h.Consume(ctx, scanEvent("s", 1, "teh", "the")))
	require.NoError(t, h.Consume(ctx, scanEvent("s", 2, "xqz")))

	res, done = h.Snapshot("s")
	assert.True(t, done)
	assert.Equal(t, "xqz", res.LastWrongWord)
	assert.Equal(t, []string{"the"}, res.Suggestions)
	assert.True(t, res.NoSuggestions)

	res.Suggestions[0] = "changed"
	again, _ := h.Snapshot("s")
	assert.Equal(t, "the", again.Suggestions[0])

	h.Forget("s")
	res, _ = h.Snapshot("s")
	assert.Nil(t, res)
}

func TestEventHandler_ConcurrentConsume(t *testing.T) {
	h := NewEventHandler(nil)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			_ = h.Consume(context.Background(), scanEvent("c", seq, "w"+strconv.Itoa(seq), "x"))
		}(i)
	}
	wg.Wait()
	require.NoError(t, h.Consume(context.Background(), closing("c", 51)))

	res, done := h.Snapshot("c")
	require.True(t, done)
	assert.Len(t, res.Suggestions, 50)
	assert.Equal(t, "w50", res.LastWrongWord)
}

func TestEventHandler_RejectsUnscopedEvents(t *testing.T) {
	h := NewEventHandler(nil)
	err := h.Consume(context.Background(), ScanEvent{MisspellingEvent: collector.MisspellingEvent{Word: "teh"}})
	assert.Equal(t, xerror.CodeInvalidParams, xerror.CodeOf(err))
	assert.Empty(t, h.Finished())

	h.ErrorHandler(context.Background(), scanEvent("", 0, "teh"), errors.New("bad body"))
}

type publishCall struct {
	topic       rocketmq.Topic
	body        []byte
	shardingKey string
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, topic rocketmq.Topic, msg []byte, opts ...rocketmq.PublishOptionFunc) error {
	opt := &rocketmq.PublishOption{}
	for _, o := range opts {
		o(opt)
	}
	if opt.ShardingKey == "" {
		return errors.New("missing sharding key")
	}
	p.calls = append(p.calls, publishCall{topic: topic, body: msg, shardingKey: opt.ShardingKey})
	return p.err
}

func (p *fakePublisher) shardingKeys() []string {
	keys := make([]string, len(p.calls))
	for i, c := range p.calls {
		keys[i] = c.shardingKey
	}
	return keys
}

func TestService_PublishScan(t *testing.T) {
	p := &fakePublisher{}
	svc := New(StaticPath(""), WithBus(bus.New()), WithIDFunc(sequentialIDs()))
	engine := NewWordListEngine("the", "tea", "cat")

	first, err := svc.PublishScan(context.Background(), engine, "teh xqz", p)
	require.NoError(t, err)
	assert.Equal(t, "1", first)
	second, err := svc.PublishScan(context.Background(), engine, "cta", p)
	require.NoError(t, err)
	assert.Equal(t, "2", second)

	// two events plus the closing message, then one event plus closing
	require.Len(t, p.calls, 5)
	assert.Equal(t, rocketmq.TopicMisspelling, p.calls[0].topic)
	assert.Equal(t, []string{"1", "1", "1", "2", "2"}, p.shardingKeys())

	var ev ScanEvent
	require.NoError(t, json.Unmarshal(p.calls[0].body, &ev))
	assert.Equal(t, scanEvent("1", 1, "teh", "tea", "the"), ev)

	// consumers may see the two scans interleaved
	h := NewEventHandler(nil)
	for _, i := range []int{3, 0, 4, 1, 2} {
		var ev ScanEvent
		require.NoError(t, json.Unmarshal(p.calls[i].body, &ev))
		require.NoError(t, h.Consume(context.Background(), ev))
	}

	res, done := h.Snapshot(first)
	require.True(t, done)
	assert.Equal(t, "xqz", res.LastWrongWord)
	assert.True(t, res.NoSuggestions)
	assert.Equal(t, []string{"tea", "the"}, res.Suggestions)

	res, done = h.Snapshot(second)
	require.True(t, done)
	assert.Equal(t, "cta", res.LastWrongWord)
	assert.Equal(t, []string{"cat"}, res.Suggestions)
}

func TestService_PublishScanEngineError(t *testing.T) {
	p := &fakePublisher{}
	boom := errors.New("engine crashed")
	svc := New(StaticPath(""), WithBus(bus.New()), WithIDFunc(sequentialIDs()))

	_, err := svc.PublishScan(context.Background(), EngineFunc(func(_ context.Context, _ string, emit collector.Emitter) error {
		emit(collector.MisspellingEvent{Word: "teh", Suggestions: []string{"the"}})
		return boom
	}), "teh", p)
	assert.ErrorIs(t, err, boom)

	require.Len(t, p.calls, 2)
	var last ScanEvent
	require.NoError(t, json.Unmarshal(p.calls[1].body, &last))
	assert.True(t, last.Done)
	assert.Equal(t, 2, last.Seq)
}

func TestRemoteEmitter_PublishError(t *testing.T) {
	p := &fakePublisher{err: errors.New("broker down")}
	emit, done := RemoteEmitter(context.Background(), p, "7")
	emit(collector.MisspellingEvent{Word: "teh"})
	done()
	assert.Len(t, p.calls, 2)
}
