package xtrace

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
)

var DefaultSizeLimit = SizeLimitConfig{
	AttrMaxBytes: 64 * 1024,       // single attribute max bytes
	SpanMaxBytes: 4 * 1024 * 1024, // single span max bytes
}

// InjectDetector registers the size detector on the global provider when it
// is an sdk provider. It reports whether the detector was registered.
func InjectDetector() bool {
	r, ok := otel.GetTracerProvider().(*trace.TracerProvider)
	if !ok {
		return false
	}

	r.RegisterSpanProcessor(NewSizeDetectorProcessor(DefaultSizeLimit))
	return true
}
