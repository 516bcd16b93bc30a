// Package browse abstracts the headless browser used for permit page
// lookups and document rasterization, so the components above it can be
// exercised without Chrome.
package browse

import "context"

// Page is one open browser page.
type Page interface {
	// Text returns the inner text of the first element matching selector.
	Text(selector string) (string, error)
	// Input types text into the first element matching selector.
	Input(selector, text string) error
	// Click clicks the first element matching selector.
	Click(selector string) error
	// SetContent replaces the page document with the given HTML.
	SetContent(html string) error
	// PDF rasterizes the current document to PDF bytes.
	PDF() ([]byte, error)
	// Close releases the page.
	Close() error
}

// Browser is one shared browser context. Pages opened from it are
// expected to be used one at a time.
type Browser interface {
	// Open creates a page, navigates it to url, and waits for the load
	// event within the browser's configured navigation timeout.
	Open(ctx context.Context, url string) (Page, error)
	// Close releases the browser and everything it owns.
	Close() error
}

// Launcher acquires a browser context. The pipeline calls it once per
// batch and closes the returned browser when the batch completes.
type Launcher func(ctx context.Context) (Browser, error)
