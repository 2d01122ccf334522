package xtrace

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
)

// SizeLimitConfig bounds attribute and span sizes. Dictionary contents end up
// in span attributes only by mistake, and this is how we notice.
type SizeLimitConfig struct {
	AttrMaxBytes int // single attribute max bytes
	SpanMaxBytes int // single span max bytes
}

// NewSizeDetectorProcessor returns a span processor that logs oversized spans.
func NewSizeDetectorProcessor(cfg SizeLimitConfig) trace.SpanProcessor {
	return &sizeDetectorProcessor{cfg: cfg, report: logx.Errorf}
}

type sizeDetectorProcessor struct {
	cfg    SizeLimitConfig
	report func(format string, v ...any)
}

func (p *sizeDetectorProcessor) OnStart(ctx context.Context, s trace.ReadWriteSpan) {}

func (p *sizeDetectorProcessor) OnEnd(s trace.ReadOnlySpan) {
	p.checkSpan(s)
}

func (p *sizeDetectorProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *sizeDetectorProcessor) ForceFlush(ctx context.Context) error { return nil }

func (p *sizeDetectorProcessor) checkSpan(s trace.ReadOnlySpan) int {
	spanName := s.Name()
	traceID := s.SpanContext().TraceID().String()

	total := p.sumAttrs(s.Attributes(), func(key string, size int) {
		p.report("[OTEL-Detector] Big ATTR detected: span=%s trace=%s attr=%s size=%d bytes (limit=%d)",
			spanName, traceID, key, size, p.cfg.AttrMaxBytes)
	})

	for _, e := range s.Events() {
		total += p.sumAttrs(e.Attributes, func(key string, size int) {
			p.report("[OTEL-Detector] Big EVENT ATTR detected: span=%s trace=%s event=%s attr=%s size=%d bytes (limit=%d)",
				spanName, traceID, e.Name, key, size, p.cfg.AttrMaxBytes)
		})
	}

	if res := s.Resource(); res != nil {
		for _, attr := range res.Attributes() {
			total += attributeSize(attr)
		}
	}

	if total > p.cfg.SpanMaxBytes {
		p.report("[OTEL-Detector] Big SPAN detected: span=%s trace=%s totalSize=%d bytes (limit=%d)",
			spanName, traceID, total, p.cfg.SpanMaxBytes)
	}
	return total
}

func (p *sizeDetectorProcessor) sumAttrs(attrs []attribute.KeyValue, tooBig func(key string, size int)) int {
	total := 0
	for _, attr := range attrs {
		size := attributeSize(attr)
		total += size
		if size > p.cfg.AttrMaxBytes {
			tooBig(string(attr.Key), size)
		}
	}
	return total
}

// attributeSize approximates the encoded size of an attribute in bytes.
func attributeSize(attr attribute.KeyValue) int {
	size := len(attr.Key)

	switch attr.Value.Type() {
	case attribute.STRING:
		size += len(attr.Value.AsString())
	case attribute.BOOL:
		size++
	case attribute.INT64, attribute.FLOAT64:
		size += 8
	case attribute.STRINGSLICE:
		for _, s := range attr.Value.AsStringSlice() {
			size += len(s)
		}
	case attribute.BOOLSLICE:
		size += len(attr.Value.AsBoolSlice())
	case attribute.INT64SLICE:
		size += len(attr.Value.AsInt64Slice()) * 8
	case attribute.FLOAT64SLICE:
		size += len(attr.Value.AsFloat64Slice()) * 8
	default:
		size += len(fmt.Sprintf("%v", attr.Value.AsInterface()))
	}

	return size
}
