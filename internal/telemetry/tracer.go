package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Command returns an attribute identifying the dispatched command verb
// (ADD, GET, FLUSH, ...), used to label dispatch spans and logs.
func Command(verb string) attribute.KeyValue {
	return attribute.String("tectonic.command", verb)
}

// StoreName returns an attribute identifying the store a span operates on.
func StoreName(name string) attribute.KeyValue {
	return attribute.String("tectonic.store", name)
}

// UpdateCount returns an attribute for the number of updates a span touched.
func UpdateCount(n int) attribute.KeyValue {
	return attribute.Int("tectonic.update_count", n)
}

// ClientAddr returns an attribute for the remote address of a connection.
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String("tectonic.client_addr", addr)
}

// StartDispatchSpan starts a span around one dispatched command.
func StartDispatchSpan(ctx context.Context, verb string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{Command(verb)}, attrs...)
	return StartSpan(ctx, "dispatch."+verb, trace.WithAttributes(attrs...))
}

// StartStoreSpan starts a span around one Store operation (flush, load, ...).
func StartStoreSpan(ctx context.Context, operation, store string) (context.Context, trace.Span) {
	return StartSpan(ctx, "store."+operation, trace.WithAttributes(StoreName(store)))
}
