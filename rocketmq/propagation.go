package rocketmq

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
)

var propagator = propagation.TraceContext{}

// injectTrace returns the message properties carrying ctx's span context.
func injectTrace(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	propagator.Inject(ctx, carrier)
	return carrier
}

func extractTrace(ctx context.Context, props map[string]string) context.Context {
	return propagator.Extract(ctx, propagation.MapCarrier(props))
}
