package react

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing is optional: without WithTracer both helpers collapse to
// no-ops. With a tracer, every flush cycle and every eager-node run
// becomes a span, with errors recorded and cancellations marked as
// events rather than failures.

// startFlushSpan opens a span for one flush cycle. The returned func
// closes it, recording how many eager nodes were drained.
func startFlushSpan(g *Graph) func(drained int) {
	if g.tracer == nil {
		return func(int) {}
	}

	_, span := g.tracer.Start(context.Background(), "reflex.flush",
		trace.WithAttributes(
			attribute.Int64("reflex.graph_id", int64(g.id)),
		))

	return func(drained int) {
		span.SetAttributes(attribute.Int("reflex.nodes_drained", drained))
		span.End()
	}
}

// startRunSpan opens a span for one node execution. The returned func
// closes it with the run's outcome.
func startRunSpan(g *Graph, kind nodeKind, label string, id uint64) func(err error) {
	if g.tracer == nil {
		return func(error) {}
	}

	_, span := g.tracer.Start(context.Background(), "reflex.run",
		trace.WithAttributes(
			attribute.Int64("reflex.graph_id", int64(g.id)),
			attribute.Int64("reflex.node_id", int64(id)),
			attribute.String("reflex.node_kind", kind.String()),
			attribute.String("reflex.node_label", label),
		))

	return func(err error) {
		switch {
		case err == nil:
		case errors.Is(err, ErrStop):
			span.AddEvent("cancelled")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
