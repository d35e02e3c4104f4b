package loader

import (
	"log/slog"
	"time"
)

// Option configures a [Loader].
type Option func(*options)

type options struct {
	l   *slog.Logger
	now func() time.Time
}

// WithLogger injects the structured logger used by the [Loader].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			return
		}

		o.l = l
	}
}

// WithClock sets the clock used to generate the ID of charts which don't have one.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now == nil {
			return
		}

		o.now = now
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		l:   slog.Default().With(slog.String("module", "loader")),
		now: time.Now,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
