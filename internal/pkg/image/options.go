package image //nolint:revive // it's okay for an internal package to use this name

import (
	"log/slog"
	"time"

	"github.com/fredbi/runviz/internal/pkg/config"
)

// Option to tune image rendering.
type Option func(*options)

type options struct {
	Height        int64
	Width         int64
	SleepDuration time.Duration
	Timeout       time.Duration
	l             *slog.Logger
}

const (
	defaultHeight  int64 = 1080
	defaultWidth   int64 = 1920
	defaultWait          = time.Second
	defaultTimeout       = time.Minute
)

func optionsWithDefaults(opts []Option) options {
	o := options{
		Height:        defaultHeight,
		Width:         defaultWidth,
		SleepDuration: defaultWait,
		Timeout:       defaultTimeout,
		l:             slog.Default().With(slog.String("module", "image")),
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}

// WithScreenshot applies the screenshot settings of the configuration.
// Unset values keep their defaults.
func WithScreenshot(cfg config.Screenshot) Option {
	return func(o *options) {
		for _, apply := range []Option{
			WithHeight(cfg.Height),
			WithWidth(cfg.Width),
			WithSleep(cfg.SleepDuration()),
		} {
			apply(o)
		}
	}
}

// WithHeight sets the height of the screenshot.
//
// Defaults to 1080.
func WithHeight(height int64) Option {
	return func(o *options) {
		if height <= 0 {
			return
		}

		o.Height = height
	}
}

// WithWidth sets the width of the screenshot.
//
// Defaults to 1920.
func WithWidth(width int64) Option {
	return func(o *options) {
		if width <= 0 {
			return
		}

		o.Width = width
	}
}

// WithSleep sets the time to wait for the chrome headless engine to render the HTML page.
//
// Defaults to 1s.
func WithSleep(sleep time.Duration) Option {
	return func(o *options) {
		if sleep <= 0 {
			return
		}

		o.SleepDuration = sleep
	}
}

// WithTimeout bounds the total time spent by the headless browser.
//
// Defaults to 1m.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout <= 0 {
			return
		}

		o.Timeout = timeout
	}
}

// WithLogger injects the structured logger used by the [Renderer].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			return
		}

		o.l = l
	}
}
