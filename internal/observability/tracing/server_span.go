package tracing

import (
	"context"
	"net/http"
	"strings"
	"time"

	obscontext "github.com/fanflet/fanflet/internal/observability/context"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const serverTracerName = "fanflet/http"

type serverOptions struct {
	provider trace.TracerProvider
}

type ServerOption func(*serverOptions)

// WithTracerProvider overrides the global provider.
func WithTracerProvider(tp trace.TracerProvider) ServerOption {
	return func(o *serverOptions) { o.provider = tp }
}

// ServerSpans opens one server span per request. The span is renamed to the
// matched route once the handler chain has run.
func ServerSpans(opts ...ServerOption) gin.HandlerFunc {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.provider == nil {
		o.provider = otel.GetTracerProvider()
	}
	tracer := o.provider.Tracer(serverTracerName)

	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		parent := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(parent, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		ctx = attachRequestID(ctx, span)

		c.Request = c.Request.WithContext(ctx)
		started := time.Now()
		c.Next()

		finishServerSpan(c, span, method, time.Since(started))
	}
}

func attachRequestID(ctx context.Context, span trace.Span) context.Context {
	requestID := obscontext.RequestIDFromContext(ctx)
	if requestID == "" {
		return ctx
	}
	span.SetAttributes(attribute.String("request_id", requestID))

	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.New(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

func finishServerSpan(c *gin.Context, span trace.Span, method string, elapsed time.Duration) {
	defer span.End()

	route := c.FullPath()
	if route == "" {
		route = "unknown"
	}
	status := c.Writer.Status()
	span.SetName("HTTP " + method + " " + route)

	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
		attribute.Int64("http.server_duration_ms", elapsed.Milliseconds()),
	}
	if speakerID := obscontext.SpeakerIDFromContext(c.Request.Context()); speakerID != "" {
		attrs = append(attrs, attribute.String("speaker_id", speakerID))
	}
	if featureKey := strings.TrimSpace(c.Param("key")); featureKey != "" {
		attrs = append(attrs, attribute.String("feature_key", featureKey))
	}
	span.SetAttributes(SafeAttributes(attrs...)...)

	if status < http.StatusInternalServerError {
		return
	}
	if last := c.Errors.Last(); last != nil {
		if safeErr := SafeError(last.Err); safeErr != nil {
			span.RecordError(safeErr)
		}
	}
	span.SetStatus(codes.Error, "request error")
}
