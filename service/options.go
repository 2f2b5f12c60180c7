package service

import (
	"time"

	"github.com/layer-3/warden/internal/metrics"
	"github.com/layer-3/warden/ports"
)

// Option configures a Gate or a Sweeper
type Option func(*options)

type options struct {
	now     func() time.Time
	metrics metrics.AuthMetrics
	events  ports.EventPublisher
}

func defaultOptions() options {
	return options{
		now:     time.Now,
		metrics: metrics.NewNopAuthMetrics(),
		events:  ports.NopPublisher{},
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMetrics records protocol outcomes into m
func WithMetrics(m metrics.AuthMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEvents publishes protocol events to p
func WithEvents(p ports.EventPublisher) Option {
	return func(o *options) { o.events = p }
}
