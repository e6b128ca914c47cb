package client

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for client spans.
const defaultTracerName = "cellclient"

func defaultTracer() trace.Tracer {
	return otel.Tracer(defaultTracerName)
}

// startConnectSpan opens the span covering one dial attempt.
func startConnectSpan(ctx context.Context, tr trace.Tracer, role, url string) (context.Context, trace.Span) {
	return tr.Start(ctx, "cellclient.connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cellclient.session", role),
			attribute.String("cellclient.url", url),
		),
	)
}

// startDispatchSpan opens the span covering one inbound frame.
func startDispatchSpan(tr trace.Tracer, role, opcode string, size int) trace.Span {
	_, span := tr.Start(context.Background(), "cellclient.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("cellclient.session", role),
			attribute.String("cellclient.opcode", opcode),
			attribute.Int("cellclient.bytes", size),
		),
	)
	return span
}

// endSpan records err, if any, and ends span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
