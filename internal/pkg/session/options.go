package session

import (
	"log/slog"

	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/fredbi/runviz/internal/pkg/pipeline"
)

// Option configures a [Session].
type Option func(*options)

type rebuildFunc func(model.Chart, model.Settings) (*pipeline.Result, error)

type options struct {
	l            *slog.Logger
	sync         func(model.ChartContext)
	pipelineOpts []pipeline.Option
	rebuild      rebuildFunc
}

// WithLogger injects the structured logger used by the [Session].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			return
		}

		o.l = l
	}
}

// WithSync registers a callback notified with the new chart context whenever
// the smoothing, the shown runs, the hidden series or the zoom range change.
//
// The callback is never called while the session is locked: it may safely call the session back.
func WithSync(fn func(model.ChartContext)) Option {
	return func(o *options) {
		o.sync = fn
	}
}

// WithPipelineOptions passes options to every rebuild of the chart.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

func withRebuilder(fn rebuildFunc) Option {
	return func(o *options) {
		o.rebuild = fn
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		l: slog.Default().With(slog.String("module", "session")),
	}

	for _, apply := range opts {
		apply(&o)
	}

	if o.rebuild == nil {
		pipelineOpts := append([]pipeline.Option{pipeline.WithLogger(o.l)}, o.pipelineOpts...)
		o.rebuild = func(chart model.Chart, settings model.Settings) (*pipeline.Result, error) {
			return pipeline.Rebuild(chart, settings, pipelineOpts...)
		}
	}

	return o
}
