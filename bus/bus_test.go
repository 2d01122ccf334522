package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	Word string
}

func TestPublish_DeliversInOrder(t *testing.T) {
	b := New()
	var got []string

	require.NoError(t, b.Subscribe("t", func(ev event) error {
		got = append(got, "a:"+ev.Word)
		return nil
	}))
	require.NoError(t, b.Subscribe("t", func(ev event) error {
		got = append(got, "b:"+ev.Word)
		return nil
	}))

	require.NoError(t, b.Publish("t", event{Word: "teh"}))
	require.NoError(t, b.Publish("other", event{Word: "ignored"}))

	assert.Equal(t, []string{"a:teh", "b:teh"}, got)
}

func TestSubscribe_RejectsBadHandlers(t *testing.T) {
	b := New()

	assert.Error(t, b.Subscribe("t", "not a func"))
	assert.Error(t, b.Subscribe("t", func(ev event) {}))
	assert.Error(t, b.Subscribe("t", nil))
}

func TestPublish_ArgMismatch(t *testing.T) {
	b := New()
	require.NoError(t, b.Subscribe("t", func(ev event) error { return nil }))

	assert.Error(t, b.Publish("t"))
	assert.Error(t, b.Publish("t", "wrong type"))
}

func TestPublish_StopsOnHandlerError(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	calls := 0

	require.NoError(t, b.Subscribe("t", func(ev event) error { calls++; return boom }))
	require.NoError(t, b.Subscribe("t", func(ev event) error { calls++; return nil }))

	assert.ErrorIs(t, b.Publish("t", event{}), boom)
	assert.Equal(t, 1, calls)
}

func TestSubscribeOnce(t *testing.T) {
	b := New()
	calls := 0
	require.NoError(t, b.SubscribeOnce("t", func(ev event) error { calls++; return nil }))

	require.NoError(t, b.Publish("t", event{}))
	require.NoError(t, b.Publish("t", event{}))

	assert.Equal(t, 1, calls)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	calls := 0
	fn := func(ev event) error { calls++; return nil }

	require.NoError(t, b.Subscribe("t", fn))
	require.NoError(t, b.Unsubscribe("t", fn))
	require.NoError(t, b.Publish("t", event{}))
	assert.Equal(t, 0, calls)

	assert.Error(t, b.Unsubscribe("t", fn))
}

func TestUnsubscribeAll(t *testing.T) {
	b := New()
	calls := 0
	topic := MisspellingTopic("42")

	require.NoError(t, b.Subscribe(topic, func(ev event) error { calls++; return nil }))
	b.UnsubscribeAll(topic)
	require.NoError(t, b.Publish(topic, event{}))

	assert.Equal(t, 0, calls)
	assert.Equal(t, EventTopic("spell.misspelling/42"), topic)
}

func TestNilArgUsesZeroValue(t *testing.T) {
	b := New()
	var got *event = &event{Word: "set"}
	require.NoError(t, b.Subscribe("t", func(ev *event) error { got = ev; return nil }))

	require.NoError(t, b.Publish("t", nil))
	assert.Nil(t, got)
}

func TestDefaultBus(t *testing.T) {
	topic := EventTopic("test.default")
	t.Cleanup(func() { Default().UnsubscribeAll(topic) })

	var got []string
	fn := func(ev event) error {
		got = append(got, ev.Word)
		return nil
	}
	require.NoError(t, Subscribe(topic, fn))
	require.NoError(t, Default().Publish(topic, event{Word: "a"}))
	require.NoError(t, Unsubscribe(topic, fn))
	require.NoError(t, Default().Publish(topic, event{Word: "b"}))
	assert.Equal(t, []string{"a"}, got)

	assert.Error(t, Unsubscribe(topic, fn))
}
