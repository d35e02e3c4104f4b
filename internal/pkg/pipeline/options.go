package pipeline

import "log/slog"

// Option configures a chart rebuild.
type Option func(*options)

type options struct {
	l           *slog.Logger
	metricTitle func(string) string
}

// WithLogger injects the structured logger used by the pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			return
		}

		o.l = l
	}
}

// WithMetricTitle resolves the y-axis title from the metric label,
// e.g. from the metric definitions of the configuration.
//
// By default, the y-axis title is the metric label.
func WithMetricTitle(fn func(label string) string) Option {
	return func(o *options) {
		if fn == nil {
			return
		}

		o.metricTitle = fn
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		l:           slog.Default().With(slog.String("module", "pipeline")),
		metricTitle: func(label string) string { return label },
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
