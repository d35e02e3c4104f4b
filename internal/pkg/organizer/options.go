package organizer

import "log/slog"

// Option configures an [Organizer].
type Option func(*options)

type options struct {
	l *slog.Logger
}

// WithLogger injects the structured logger used by the [Organizer].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			return
		}

		o.l = l
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		l: slog.Default().With(slog.String("module", "organizer")),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
