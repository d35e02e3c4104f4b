// Package image takes a PNG screenshot of a rendered chart page.
package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

const qualityPNG = 100 // 100 to force PNG

// Renderer knows how to take a screenshot from a HTML page and write it as PNG.
type Renderer struct {
	options
}

// New builds an image [Renderer] for HTML chart pages.
func New(opts ...Option) *Renderer {
	return &Renderer{
		options: optionsWithDefaults(opts),
	}
}

// Render a PNG image as a screenshot from a HTML input [io.Reader].
//
// The headless browser is stopped when the context is cancelled or after the configured timeout.
func (r *Renderer) Render(ctx context.Context, dest io.Writer, source io.Reader) error {
	content, err := io.ReadAll(source)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	screenshot, err := r.screenshot(ctx, content)
	if err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}

	if _, err = dest.Write(screenshot); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	r.l.Info("screenshot taken", slog.Int("bytes", len(screenshot)))

	return nil
}

func (r *Renderer) screenshot(parent context.Context, content []byte) ([]byte, error) {
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, r.Timeout)
	defer cancelTimeout()

	ctx, cancel := chromedp.NewContext(timeoutCtx)
	defer cancel()

	var screenshot []byte

	err := chromedp.Run(ctx,
		chromedp.Emulate(device.Info{
			Height:    r.Height,
			Width:     r.Width,
			Landscape: true,
		}),
		chromedp.Navigate(DataURL(content)),
		chromedp.Sleep(r.SleepDuration), // charts are animated: wait for the rendering to settle
		chromedp.FullScreenshot(&screenshot, qualityPNG),
	)
	if err != nil {
		return nil, err
	}

	return screenshot, nil
}

// DataURL embeds a HTML page in a data URL.
//
// The page is base64-encoded, since chart pages contain characters such as '#' which are not allowed in a raw data URL.
func DataURL(content []byte) string {
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString(content)
}
