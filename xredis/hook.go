package xredis

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"gomod.pri/spellkit/xtrace"
)

var dbSystem = attribute.String("db.system", "redis")

// TracingHook opens a span for every command and pipeline.
type TracingHook struct{}

func (TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := xtrace.Start(ctx, "redis."+cmd.Name(),
			dbSystem,
			attribute.String("db.operation", cmd.Name()),
		)

		err := next(ctx, cmd)
		// a miss is not a failure
		if errors.Is(err, redis.Nil) {
			xtrace.End(span, nil)
		} else {
			xtrace.End(span, err)
		}
		return err
	}
}

func (TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}

		ctx, span := xtrace.Start(ctx, "redis.pipeline",
			dbSystem,
			attribute.Int("db.statement.count", len(cmds)),
			attribute.String("db.operation", strings.Join(names, " ")),
		)

		err := next(ctx, cmds)
		xtrace.End(span, err)
		return err
	}
}
