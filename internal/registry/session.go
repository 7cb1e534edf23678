// Package registry implements the matching stage: it drives the public
// registry search page through a browser session, parses the results table,
// and persists the verdict.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/config"
	"github.com/echefulouis/drug-verification-system/internal/model"
)

// SearchMode selects which search field the session fills in.
type SearchMode string

const (
	ModeNumber SearchMode = "number"
	ModeName   SearchMode = "name"
)

// SearchResult is the narrow outcome of one registry search: rows, or a
// results-table timeout. A timeout is a definitive "not found", not an error.
type SearchResult struct {
	TimedOut bool
	Matches  []model.ProductMatch
}

// Session is the capability the validator needs from the browser layer.
type Session interface {
	Search(ctx context.Context, term string, mode SearchMode) (*SearchResult, error)
}

// BrowserSession drives a headless Chrome against the registry page. Every
// Search launches a fresh browser; session state is never reused between
// search terms.
type BrowserSession struct {
	cfg    config.RegistryConfig
	logger *zap.Logger
}

// NewBrowserSession builds a session factory bound to one registry page.
func NewBrowserSession(cfg config.RegistryConfig, logger *zap.Logger) *BrowserSession {
	return &BrowserSession{cfg: cfg, logger: logger}
}

// Search loads the page, types the term into the mode's field, waits the
// settle interval for asynchronous results, then waits (bounded) for the
// results table.
func (s *BrowserSession) Search(ctx context.Context, term string, mode SearchMode) (*SearchResult, error) {
	fieldID := s.cfg.NumberFieldID
	if mode == ModeName {
		fieldID = s.cfg.NameFieldID
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	s.logger.Info("registry search starting",
		zap.String("term", term), zap.String("mode", string(mode)))

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(s.cfg.URL),
		chromedp.WaitVisible(fieldID, chromedp.ByID),
		chromedp.SendKeys(fieldID, term, chromedp.ByID),
		chromedp.Sleep(s.cfg.SettleInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("drive registry page: %w", err)
	}

	rowSelector := s.cfg.TableSelector + " tbody tr"
	waitCtx, cancelWait := context.WithTimeout(browserCtx, s.cfg.ResultsTimeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(rowSelector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			s.logger.Warn("results table never appeared", zap.String("term", term))
			return &SearchResult{TimedOut: true}, nil
		}
		return nil, fmt.Errorf("wait for results table: %w", err)
	}

	var tableHTML string
	if err := chromedp.Run(browserCtx,
		chromedp.OuterHTML(s.cfg.TableSelector, &tableHTML, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("read results table: %w", err)
	}

	matches, err := parseResultsTable(tableHTML)
	if err != nil {
		return nil, fmt.Errorf("parse results table: %w", err)
	}
	s.logger.Info("registry search finished",
		zap.String("term", term), zap.Int("matches", len(matches)))
	return &SearchResult{Matches: matches}, nil
}
