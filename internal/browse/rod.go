package browse

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodBrowser implements Browser on top of a headless Chromium instance
// driven by go-rod.
type RodBrowser struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	navTimeout time.Duration
}

// LaunchOptions configures a RodBrowser.
type LaunchOptions struct {
	Headless   bool
	NavTimeout time.Duration
}

// Launch starts a Chromium instance and connects to it.
func Launch(opts LaunchOptions) (*RodBrowser, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 20 * time.Second
	}

	l := launcher.New().Headless(opts.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &RodBrowser{
		browser:    browser,
		launcher:   l,
		navTimeout: opts.NavTimeout,
	}, nil
}

// NewLauncher returns a Launcher that starts a browser with the given
// options, matching the pipeline's one-browser-per-batch contract.
func NewLauncher(opts LaunchOptions) Launcher {
	return func(ctx context.Context) (Browser, error) {
		return Launch(opts)
	}
}

// Open creates a page, navigates to url, and waits for the load event.
func (b *RodBrowser) Open(ctx context.Context, url string) (Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	page = page.Context(ctx).Timeout(b.navTimeout)

	if err := page.Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	if err := page.WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	return &rodPage{page: page}, nil
}

// Close shuts down the browser and its launcher.
func (b *RodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Text(selector string) (string, error) {
	el, err := p.page.Element(selector)
	if err != nil {
		return "", fmt.Errorf("element %s: %w", selector, err)
	}
	return el.Text()
}

func (p *rodPage) Input(selector, text string) error {
	el, err := p.page.Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return el.Input(text)
}

func (p *rodPage) Click(selector string) error {
	el, err := p.page.Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) SetContent(html string) error {
	return p.page.SetDocumentContent(html)
}

func (p *rodPage) PDF() ([]byte, error) {
	a4Width, a4Height := 8.27, 11.69

	reader, err := p.page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      &a4Width,
		PaperHeight:     &a4Height,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}

	return io.ReadAll(reader)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
