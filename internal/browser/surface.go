package browser

import (
	"context"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Surface wraps one page with the small operation set the send flow
// needs. Timeouts are passed per call; the underlying driver enforces
// them.
type Surface struct {
	page playwright.Page
}

// URL returns the surface's current URL.
func (s *Surface) URL() string {
	return s.page.URL()
}

// Close closes the underlying page.
func (s *Surface) Close() error {
	return s.page.Close()
}

// Navigate drives the surface to url and waits for the DOM to be ready,
// bounded by timeout.
func (s *Surface) Navigate(url string, timeout time.Duration) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

// WaitVisible blocks until an element matching selector is visible, or
// the timeout elapses.
func (s *Surface) WaitVisible(selector string, timeout time.Duration) error {
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

// Click clicks the first element matching selector.
func (s *Surface) Click(selector string, timeout time.Duration) error {
	return s.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

// ClickVisibleByText scans elements under rootSelector for a visible one
// whose trimmed text equals any of labels (case-insensitive) and clicks
// it. It polls until the timeout elapses; (false, nil) means nothing
// matched in time.
func (s *Surface) ClickVisibleByText(ctx context.Context, rootSelector string, labels []string, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		handles, err := s.page.QuerySelectorAll(rootSelector)
		if err == nil {
			for _, h := range handles {
				visible, _ := h.IsVisible()
				if !visible {
					continue
				}
				text, _ := h.TextContent()
				text = strings.TrimSpace(text)
				for _, label := range labels {
					if strings.EqualFold(text, label) {
						if err := h.Click(); err != nil {
							return false, err
						}
						return true, nil
					}
				}
			}
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}
