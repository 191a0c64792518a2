// Package service holds the venue's business workflows: reservations,
// orders, payments and table administration.  Every workflow runs against
// a repository.Store and reports failures as *Error.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// Option customises a workflow at construction.
type Option func(*base)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithEvents sets where domain events go after a commit.  Without it
// events are dropped.
func WithEvents(s queue.Sender) Option {
	return func(b *base) { b.events = s }
}

// WithLogger sets the logger.  Without it nothing is logged.
func WithLogger(l *zap.Logger) Option {
	return func(b *base) { b.log = l }
}

type base struct {
	store  repository.Store
	events queue.Sender
	log    *zap.Logger
	now    func() time.Time
}

func newBase(store repository.Store, opts []Option) base {
	b := base{
		store:  store,
		events: queue.Nop{},
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// clock returns the current time in UTC at the precision MySQL DATETIME
// keeps.
func (b base) clock() time.Time {
	return b.now().UTC().Truncate(time.Second)
}

// emit publishes ev.  A failed publish is logged and otherwise ignored:
// the state change it describes is already committed.
func (b base) emit(ctx context.Context, ev queue.Event) {
	if err := b.events.Publish(ctx, ev); err != nil {
		b.log.Warn("publish event", zap.String("queue", ev.QueueName()), zap.Error(err))
	}
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
