package rocketmq

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	rmq "github.com/apache/rocketmq-clients/golang/v5"
	"github.com/apache/rocketmq-clients/golang/v5/credentials"
	v2 "github.com/apache/rocketmq-clients/golang/v5/protocol/v2"
	"github.com/zeromicro/go-zero/core/logx"
	"go.opentelemetry.io/otel/attribute"
	"gomod.pri/spellkit/xtrace"
)

var (
	// maximum waiting time for receive func
	awaitDuration = time.Second * 5
	// maximum number of messages received at once time
	maxMessageNum int32 = 16
	// invisibleDuration should > 20s
	invisibleDuration = time.Second * 20
)

type ConsumerConfig struct {
	Endpoint      string              `json:",optional"`
	AppID         string              `json:",optional"`
	Topic         Topic               `json:",default=spell_misspelling"`
	ConsumerGroup string              `json:",optional"`
	Tags          []string            `json:",optional"`
	Workers       int                 `json:",default=1"`
	Credentials   *SessionCredentials `json:",optional"`
	Log           LogConf             `json:",optional"`
}

func (c ConsumerConfig) Enabled() bool {
	return c.Endpoint != "" && c.ConsumerGroup != ""
}

type SessionCredentials struct {
	AccessKey    string `json:"accessKey"`
	AccessSecret string `json:"accessSecret"`
}

func (c *SessionCredentials) session() *credentials.SessionCredentials {
	if c == nil {
		return &credentials.SessionCredentials{}
	}
	return &credentials.SessionCredentials{
		AccessKey:    c.AccessKey,
		AccessSecret: c.AccessSecret,
	}
}

type ConsumeHandler[T any] interface {
	Consume(ctx context.Context, message T) error
	ErrorHandler(ctx context.Context, message T, err error)
}

type Consumer[T any] struct {
	conf     *ConsumerConfig
	consumer rmq.SimpleConsumer
	handler  ConsumeHandler[T]
	workers  int
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewConsumer[T any](conf *ConsumerConfig, handler ConsumeHandler[T]) (*Consumer[T], error) {
	if conf == nil {
		return nil, errors.New("rocketmq consumer config is nil")
	}
	SetLogger(conf.Log)

	topic := GetTopicName(conf.AppID, conf.Topic)
	tagsExp := rmq.SUB_ALL
	if len(conf.Tags) > 0 {
		tagsExp = rmq.NewFilterExpression(strings.Join(conf.Tags, "||"))
	}

	simpleConsumer, err := rmq.NewSimpleConsumer(&rmq.Config{
		Endpoint:      conf.Endpoint,
		ConsumerGroup: conf.ConsumerGroup,
		Credentials:   conf.Credentials.session(),
	},
		rmq.WithAwaitDuration(awaitDuration),
		rmq.WithSubscriptionExpressions(map[string]*rmq.FilterExpression{
			topic: tagsExp,
		}),
	)
	if err != nil {
		return nil, err
	}
	if simpleConsumer == nil {
		return nil, errors.New("rocketmq simple consumer is nil")
	}

	workers := conf.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Consumer[T]{
		conf:     conf,
		consumer: simpleConsumer,
		handler:  handler,
		workers:  workers,
		done:     make(chan struct{}),
	}, nil
}

// Start blocks until Stop is called.
func (c *Consumer[T]) Start() error {
	if err := c.consumer.Start(); err != nil {
		return err
	}

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			// 5.x proxies fail the very first receive
			time.Sleep(time.Millisecond * 100)
			c.consume()
		}()
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer[T]) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		_ = c.consumer.GracefulStop()
	})
}

func (c *Consumer[T]) consume() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		msgs, err := c.consumer.Receive(context.Background(), maxMessageNum, invisibleDuration)
		if err != nil {
			var rpcErr *rmq.ErrRpcStatus
			if errors.As(err, &rpcErr) && v2.Code(rpcErr.Code) == v2.Code_MESSAGE_NOT_FOUND {
				time.Sleep(awaitDuration)
				continue
			}
			logx.Errorf("receive message failed: %v", err)
			continue
		}

		for _, msg := range msgs {
			c.handle(msg)
		}
	}
}

// handle acks every message; handler failures are not redelivered.
func (c *Consumer[T]) handle(msg *rmq.MessageView) {
	ctx := extractTrace(context.Background(), msg.GetProperties())
	ctx, span := xtrace.Start(ctx, "rocket.Consumer.ProcessMessage",
		attribute.String("message.topic", msg.GetTopic()),
		attribute.String("message.id", msg.GetMessageId()),
	)

	err := process(ctx, c.handler, msg.GetBody())
	if ackErr := c.consumer.Ack(ctx, msg); ackErr != nil {
		logx.WithContext(ctx).Errorf("ack message %s failed: %v", msg.GetMessageId(), ackErr)
		err = errors.Join(err, ackErr)
	}
	xtrace.End(span, err)
}

func process[T any](ctx context.Context, handler ConsumeHandler[T], body []byte) error {
	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		handler.ErrorHandler(ctx, data, err)
		return err
	}

	if err := handler.Consume(ctx, data); err != nil {
		handler.ErrorHandler(ctx, data, err)
		return err
	}
	return nil
}

func MustNewConsumer[T any](conf *ConsumerConfig, handler ConsumeHandler[T]) *Consumer[T] {
	consumer, err := NewConsumer(conf, handler)
	if err != nil {
		panic(err)
	}
	return consumer
}
