package rocketmq

import (
	"context"
	"errors"
	"time"

	rmq "github.com/apache/rocketmq-clients/golang/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"go.opentelemetry.io/otel/attribute"
	"gomod.pri/spellkit/xtrace"
)

type ProducerConfig struct {
	Endpoint    string              `json:",optional"`
	AppID       string              `json:",optional"`
	Credentials *SessionCredentials `json:",optional"`
	Log         LogConf             `json:",optional"`
}

func (c ProducerConfig) Enabled() bool {
	return c.Endpoint != ""
}

type Producer struct {
	rmq.Producer
	appID string
}

func NewProducer(conf ProducerConfig) (*Producer, error) {
	SetLogger(conf.Log)
	producer, err := rmq.NewProducer(&rmq.Config{
		Endpoint:    conf.Endpoint,
		Credentials: conf.Credentials.session(),
	})
	if err != nil {
		return nil, err
	}

	if err = producer.Start(); err != nil {
		return nil, err
	}

	return &Producer{Producer: producer, appID: conf.AppID}, nil
}

func (p *Producer) Stop() {
	_ = p.GracefulStop()
}

type PublishOption struct {
	delay       time.Duration
	timeout     time.Duration
	ShardingKey string
}

type PublishOptionFunc func(*PublishOption)

func WithDelay(delay time.Duration) PublishOptionFunc {
	return func(opt *PublishOption) {
		opt.delay = delay
	}
}

func WithTimeout(timeout time.Duration) PublishOptionFunc {
	return func(opt *PublishOption) {
		opt.timeout = timeout
	}
}

// use when ensuring order
func WithShardingKey(shardingKey string) PublishOptionFunc {
	return func(opt *PublishOption) {
		opt.ShardingKey = shardingKey
	}
}

func buildMessage(ctx context.Context, topic string, body []byte, opt *PublishOption) *rmq.Message {
	message := &rmq.Message{
		Topic: topic,
		Body:  body,
	}
	if opt.ShardingKey != "" {
		message.SetKeys(opt.ShardingKey)
	}
	for k, v := range injectTrace(ctx) {
		message.AddProperty(k, v)
	}
	if opt.delay > 0 {
		message.SetDelayTimestamp(time.Now().Add(opt.delay))
	}
	return message
}

func (p *Producer) Publish(ctx context.Context, topic Topic, msg []byte, opts ...PublishOptionFunc) (err error) {
	actualTopic := GetTopicName(p.appID, topic)

	ctx, span := xtrace.Start(ctx, "rocket.Producer.Publish",
		attribute.String("topic", actualTopic),
		attribute.Int("message.size", len(msg)),
	)
	defer func() { xtrace.End(span, err) }()

	opt := &PublishOption{timeout: 5 * time.Second}
	for _, o := range opts {
		o(opt)
	}
	if opt.delay > 0 {
		span.SetAttributes(attribute.Int64("delay.ms", opt.delay.Milliseconds()))
	}

	sendCtx, cancel := context.WithTimeout(ctx, opt.timeout)
	defer cancel()

	result, err := p.Send(sendCtx, buildMessage(ctx, actualTopic, msg, opt))
	if err != nil {
		logx.WithContext(ctx).Errorf("send message failed: %v, topic: %s", err, actualTopic)
		return err
	}
	if len(result) == 0 {
		return errors.New("rocketmq send returned no receipt")
	}

	span.SetAttributes(attribute.String("message.id", result[0].MessageID))
	logx.WithContext(ctx).Infof("send message success, messageID: %s", result[0].MessageID)
	return nil
}
