package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/config"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// ChromedpPDF prints HTML through headless Chrome, either a local binary
// or a remote DevTools endpoint.
type ChromedpPDF struct {
	timeout     time.Duration
	log         *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func NewChromedpPDF(cfg config.RenderConfig, log *zap.Logger) *ChromedpPDF {
	if log == nil {
		log = zap.NewNop()
	}
	c := &ChromedpPDF{timeout: cfg.Timeout, log: log.Named("chromedp")}
	if c.timeout <= 0 {
		c.timeout = defaultRenderTimeout
	}

	if cfg.RemoteURL != "" {
		c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return c
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return c
}

// Close releases the browser allocator
func (c *ChromedpPDF) Close() {
	if c.allocCancel != nil {
		c.allocCancel()
	}
}

// HTMLToPDF loads html into a blank tab and prints it on A4 paper
func (c *ChromedpPDF) HTMLToPDF(ctx context.Context, html string) ([]byte, error) {
	start := time.Now()

	browserCtx, cancelBrowser := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		c.log.Debug(fmt.Sprintf(format, args...))
	}))
	defer cancelBrowser()

	// tie the browser tab to the request deadline
	runCtx, cancel := context.WithTimeout(browserCtx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.4).
				WithMarginBottom(0.4).
				WithMarginLeft(0.4).
				WithMarginRight(0.4).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("pdf rendering timed out after %v: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("chromedp: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("chromedp: generated pdf is empty")
	}

	c.log.Debug("pdf rendered", zap.Int("bytes", len(pdf)), zap.Duration("duration", time.Since(start)))
	return pdf, nil
}
