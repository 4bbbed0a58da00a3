package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/queue"
	"github.com/iliyamo/hotel-reservation/internal/storage"
)

var d = model.MustParseDate

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recorder) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recorder) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []queue.EventType
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Read(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (brokenStore) Write(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

// newLogger returns a logger writing into the returned buffer.
func newLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func newFileStore(t *testing.T) *storage.FileStore {
	t.Helper()
	return storage.NewFileStore(t.TempDir())
}

func ptr[T any](v T) *T { return &v }

func reservation(id, hotel, room, customer, start, end string) model.Reservation {
	return model.Reservation{
		ReservationID: id,
		HotelID:       hotel,
		RoomNumber:    model.RoomNumber(room),
		CustomerID:    customer,
		StartDate:     d(start),
		EndDate:       d(end),
	}
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }
