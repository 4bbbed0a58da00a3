package repository

import (
	"context"
	"log"

	"github.com/iliyamo/hotel-reservation/internal/queue"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	logger    *log.Logger
	publisher queue.Publisher
}

func newOptions(opts []Option) options {
	o := options{logger: log.Default(), publisher: queue.NopPublisher{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger routes load diagnostics and publish failures to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPublisher wires a publisher that receives a lifecycle event after
// every successful booking change.
func WithPublisher(p queue.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// publish must be called without any repository lock held.
func (o options) publish(ctx context.Context, component string, ev queue.ReservationEvent) {
	if err := o.publisher.Publish(ctx, ev); err != nil {
		o.logger.Printf("%s: publish %s failed: %v", component, ev.Type, err)
	}
}
