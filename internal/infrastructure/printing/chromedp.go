package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRenderTimeout = 30 * time.Second

	// A4 with 10mm margins, in inches as Chrome expects
	a4WidthInches  = 210 / 25.4
	a4HeightInches = 297 / 25.4
	marginInches   = 10 / 25.4
)

// Proof rendering errors
var (
	ErrEmptyDocument = shared.NewDomainError("INVALID_PROOF_DOCUMENT", "Proof document is empty")
	ErrRenderTimeout = shared.NewDomainError("PROOF_RENDER_TIMEOUT", "Proof rendering timed out")
)

// ChromeConfig configures the headless Chrome renderer
type ChromeConfig struct {
	// ExecPath of the Chrome binary. Empty lets chromedp look it up.
	ExecPath string
	// RemoteURL of a running Chrome DevTools endpoint, used instead of launching one
	RemoteURL string
	Timeout   time.Duration
	// NoSandbox is required when Chrome runs as root inside a container
	NoSandbox bool
}

// ChromeConfigFrom builds a ChromeConfig from the printing settings
func ChromeConfigFrom(cfg config.PrintingConfig) ChromeConfig {
	return ChromeConfig{
		ExecPath:  cfg.ChromePath,
		Timeout:   cfg.RenderTimeout,
		NoSandbox: true,
	}
}

// ChromeProofRenderer converts proof sheet HTML to PDF through the Chrome DevTools Protocol
type ChromeProofRenderer struct {
	config      ChromeConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeProofRenderer creates the browser allocator. Chrome itself starts
// lazily on the first render.
func NewChromeProofRenderer(cfg ChromeConfig, logger *zap.Logger) *ChromeProofRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ChromeProofRenderer{config: cfg, logger: logger.Named("proof_renderer")}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

// RenderPDF prints html as an A4 portrait PDF
func (r *ChromeProofRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// stop the browser tab when the caller's deadline passes
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(browserCtx,
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
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(marginInches).
				WithMarginRight(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v: %v", ErrRenderTimeout, r.config.Timeout, err)
		}
		r.logger.Error("Proof rendering failed", zap.Error(err))
		return nil, fmt.Errorf("render proof: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("render proof: chrome returned an empty PDF")
	}

	r.logger.Info("Proof rendered",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)
	return pdf, nil
}

// Close shuts down the browser allocator
func (r *ChromeProofRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}
