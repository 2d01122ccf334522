package bus

import (
	"fmt"
	"reflect"
	"sync"
)

type EventTopic string

type Subscriber interface {
	Subscribe(topic EventTopic, fn interface{}) error
	SubscribeOnce(topic EventTopic, fn interface{}) error
	Unsubscribe(topic EventTopic, handler interface{}) error
	// UnsubscribeAll drops every handler of topic.
	UnsubscribeAll(topic EventTopic)
}

type Publisher interface {
	Publish(topic EventTopic, args ...interface{}) error
}

type Bus interface {
	Subscriber
	Publisher
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type eventHandler struct {
	callback reflect.Value
	once     bool
}

// EventBus dispatches synchronously, in subscription order. Handlers are
// funcs returning a single error; the first handler error stops the publish.
type EventBus struct {
	handlers map[EventTopic][]*eventHandler
	mu       sync.RWMutex
}

func (e *EventBus) doSubscribe(topic EventTopic, fn interface{}, handler *eventHandler) error {
	ft := reflect.TypeOf(fn)
	if ft == nil || ft.Kind() != reflect.Func {
		return fmt.Errorf("bus: handler for %s is not a func", topic)
	}
	if ft.NumOut() != 1 || !ft.Out(0).Implements(errorType) {
		return fmt.Errorf("bus: handler for %s must return exactly one error", topic)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[topic] = append(e.handlers[topic], handler)
	return nil
}

func (e *EventBus) doPublish(handler *eventHandler, args ...interface{}) error {
	in, err := e.parseArgs(handler, args...)
	if err != nil {
		return err
	}
	result := handler.callback.Call(in)
	if res := result[0].Interface(); res != nil {
		return res.(error)
	}
	return nil
}

func (e *EventBus) removeHandler(topic EventTopic, idx int) {
	l := len(e.handlers[topic])
	if !(idx >= 0 && idx < l) {
		return
	}

	copy(e.handlers[topic][idx:], e.handlers[topic][idx+1:])
	e.handlers[topic][l-1] = nil
	e.handlers[topic] = e.handlers[topic][:l-1]
	if len(e.handlers[topic]) == 0 {
		delete(e.handlers, topic)
	}
}

func (e *EventBus) findHandlerIdx(topic EventTopic, callback reflect.Value) int {
	for idx, handler := range e.handlers[topic] {
		if handler.callback.Type() == callback.Type() &&
			handler.callback.Pointer() == callback.Pointer() {
			return idx
		}
	}
	return -1
}

func (e *EventBus) parseArgs(handler *eventHandler, args ...interface{}) ([]reflect.Value, error) {
	funcType := handler.callback.Type()
	if funcType.NumIn() != len(args) {
		return nil, fmt.Errorf("bus: handler takes %d args, got %d", funcType.NumIn(), len(args))
	}

	parsedArgs := make([]reflect.Value, len(args))
	for i, v := range args {
		if v == nil {
			parsedArgs[i] = reflect.New(funcType.In(i)).Elem()
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(funcType.In(i)) {
			return nil, fmt.Errorf("bus: arg %d is %s, handler wants %s", i, rv.Type(), funcType.In(i))
		}
		parsedArgs[i] = rv
	}

	return parsedArgs, nil
}

func (e *EventBus) Subscribe(topic EventTopic, fn interface{}) error {
	return e.doSubscribe(topic, fn, &eventHandler{reflect.ValueOf(fn), false})
}

func (e *EventBus) SubscribeOnce(topic EventTopic, fn interface{}) error {
	return e.doSubscribe(topic, fn, &eventHandler{reflect.ValueOf(fn), true})
}

func (e *EventBus) Unsubscribe(topic EventTopic, handler interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.handlers[topic]) == 0 {
		return fmt.Errorf("topic %s doesn't exist", topic)
	}
	e.removeHandler(topic, e.findHandlerIdx(topic, reflect.ValueOf(handler)))
	return nil
}

func (e *EventBus) UnsubscribeAll(topic EventTopic) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, topic)
}

func (e *EventBus) Publish(topic EventTopic, args ...interface{}) error {
	e.mu.Lock()
	handlers := e.handlers[topic]
	copyHandlers := make([]*eventHandler, len(handlers))
	copy(copyHandlers, handlers)
	for i := len(handlers) - 1; i >= 0; i-- {
		if handlers[i].once {
			e.removeHandler(topic, i)
		}
	}
	e.mu.Unlock()

	for _, handler := range copyHandlers {
		if err := e.doPublish(handler, args...); err != nil {
			return err
		}
	}
	return nil
}

func New() Bus {
	return &EventBus{
		handlers: make(map[EventTopic][]*eventHandler),
	}
}
