// Package storage persists registry snapshots.  A snapshot is the full
// JSON document of one registry (customers, hotels or reservations) stored
// under a name such as "customers.json".  Backends differ only in where the
// bytes live: a directory of files, a BoltDB bucket, Redis keys or a MySQL
// table.
package storage

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned by Read when no snapshot exists under the name.
var ErrNotFound = errors.New("snapshot not found")

// Store reads and writes whole snapshots by name.  Implementations must
// replace a snapshot atomically: a reader never observes a half-written
// document.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

// traced decorates a Store with an OpenTelemetry span per call.
type traced struct {
	next    Store
	backend string
	tracer  trace.Tracer
}

// Traced wraps s so every Read and Write is recorded as a span tagged
// with the backend name.  A nil tp means the global provider.
func Traced(s Store, backend string, tp trace.TracerProvider) Store {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &traced{next: s, backend: backend, tracer: tp.Tracer("hotel-reservation/storage")}
}

func (t *traced) Read(ctx context.Context, name string) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "storage.read", trace.WithAttributes(
		attribute.String("storage.backend", t.backend),
		attribute.String("snapshot.name", name),
	))
	defer span.End()

	data, err := t.next.Read(ctx, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(data)))
	return data, err
}

func (t *traced) Write(ctx context.Context, name string, data []byte) error {
	ctx, span := t.tracer.Start(ctx, "storage.write", trace.WithAttributes(
		attribute.String("storage.backend", t.backend),
		attribute.String("snapshot.name", name),
		attribute.Int("snapshot.bytes", len(data)),
	))
	defer span.End()

	if err := t.next.Write(ctx, name, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
