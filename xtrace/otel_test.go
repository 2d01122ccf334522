package xtrace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestAttributeSize(t *testing.T) {
	tests := []struct {
		attr attribute.KeyValue
		want int
	}{
		{attribute.String("k", "word"), 5},
		{attribute.Bool("ok", true), 3},
		{attribute.Int("n", 7), 9},
		{attribute.StringSlice("s", []string{"the", "tea"}), 7},
		{attribute.Int64Slice("ids", []int64{1, 2}), 19},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, attributeSize(tt.attr), string(tt.attr.Key))
	}
}

func TestSizeDetector_ReportsBigAttributes(t *testing.T) {
	var reports []string
	p := &sizeDetectorProcessor{
		cfg: SizeLimitConfig{AttrMaxBytes: 16, SpanMaxBytes: 32},
		report: func(format string, v ...any) {
			reports = append(reports, fmt.Sprintf(format, v...))
		},
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(p))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "dictstore.Save")
	span.SetAttributes(attribute.String("dictionary.content", strings.Repeat("cat\r\n", 10)))
	span.End()

	require.Len(t, reports, 2)
	assert.Contains(t, reports[0], "Big ATTR detected")
	assert.Contains(t, reports[1], "Big SPAN detected")
}

func TestStartEnd_RecordsStatus(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "ok")
	End(span, nil)
	_, span = tp.Tracer("test").Start(context.Background(), "failed")
	End(span, errors.New("disk full"))

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "disk full", ended[1].Status().Description)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "00000000000000000000000000000000", TraceID(context.Background()))
}
