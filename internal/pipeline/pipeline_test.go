package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/extract"
	"github.com/etpflow/etpflow/internal/observability"
	"github.com/etpflow/etpflow/internal/render"
)

// fakePage answers every selector query with a canned value keyed by the
// identifier the page was opened for. Pages opened for "about:blank" act
// as render surfaces.
type fakePage struct {
	identifier string
	displayed  string
	content    string
}

func (p *fakePage) Text(selector string) (string, error) {
	if selector == "#lbl_etpNo" {
		return p.displayed, nil
	}

	return "value for " + selector, nil
}

func (p *fakePage) Input(selector, text string) error { return nil }
func (p *fakePage) Click(selector string) error       { return nil }

func (p *fakePage) SetContent(html string) error {
	p.content = html
	return nil
}

func (p *fakePage) PDF() ([]byte, error) {
	return []byte("%PDF-1.4 " + p.content), nil
}

func (p *fakePage) Close() error { return nil }

// fakeBrowser hands out fakePages and records the lookup URLs it was
// asked to open.
type fakeBrowser struct {
	opened    []string
	displayed map[string]string
	closed    bool
}

func (b *fakeBrowser) Open(ctx context.Context, url string) (browse.Page, error) {
	b.opened = append(b.opened, url)

	if url == "about:blank" {
		return &fakePage{}, nil
	}

	identifier := url[strings.LastIndex(url, "=")+1:]
	displayed := identifier
	if b.displayed != nil {
		if v, ok := b.displayed[identifier]; ok {
			displayed = v
		}
	}

	return &fakePage{identifier: identifier, displayed: displayed}, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func newTestPipeline(t *testing.T, browser browse.Browser) *Pipeline {
	t.Helper()

	launch := func(ctx context.Context) (browse.Browser, error) {
		return browser, nil
	}

	return NewPipeline(
		observability.Nop(),
		launch,
		extract.NewExtractor(),
		render.NewRenderer(t.TempDir()),
		func(identifier string) string { return "https://example.test/lookup?eId=" + identifier },
	)
}

func TestGenerate_ProducesOneDocumentPerIdentifier(t *testing.T) {
	browser := &fakeBrowser{}
	p := newTestPipeline(t, browser)

	var delivered []string
	result := p.Generate(context.Background(), []string{"100", "101", "102"}, Options{
		OnDocument: func(identifier, path string) error {
			// The file must already exist when delivery is invoked.
			_, err := os.Stat(path)
			require.NoError(t, err)
			delivered = append(delivered, identifier)
			return nil
		},
	})

	require.Len(t, result.Documents, 3)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, []string{"100", "101", "102"}, delivered)
	assert.True(t, browser.closed)

	for i, identifier := range []string{"100", "101", "102"} {
		assert.Equal(t, identifier, result.Documents[i].Identifier)
		assert.Equal(t, identifier+".pdf", filepath.Base(result.Documents[i].Path))
	}
}

func TestGenerate_SkipsMismatchedIdentity(t *testing.T) {
	browser := &fakeBrowser{displayed: map[string]string{"101": "UP/999"}}
	p := newTestPipeline(t, browser)

	var lines []string
	result := p.Generate(context.Background(), []string{"100", "101"}, Options{
		OnLog: func(line string) { lines = append(lines, line) },
	})

	require.Len(t, result.Documents, 1)
	assert.Equal(t, "100", result.Documents[0].Identifier)
	assert.Equal(t, 1, result.Skipped)

	var mismatches int
	for _, line := range lines {
		if strings.Contains(line, "skipped") && strings.Contains(line, "UP/999") {
			mismatches++
		}
	}
	assert.Equal(t, 1, mismatches, "expected exactly one mismatch report, got %v", lines)

	// No document file may exist for the mismatched identifier.
	dir := filepath.Dir(result.Documents[0].Path)
	_, err := os.Stat(filepath.Join(dir, "101.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_EmptyInputOpensNothing(t *testing.T) {
	browser := &fakeBrowser{}
	p := newTestPipeline(t, browser)

	var lines []string
	result := p.Generate(context.Background(), nil, Options{
		OnLog: func(line string) { lines = append(lines, line) },
	})

	assert.Empty(t, result.Documents)
	assert.Empty(t, browser.opened)
	assert.Contains(t, lines, "No permit numbers provided.")
}

func TestGenerate_LaunchFailureSkipsWholeBatch(t *testing.T) {
	p := NewPipeline(
		observability.Nop(),
		func(ctx context.Context) (browse.Browser, error) {
			return nil, errors.New("chrome not found")
		},
		extract.NewExtractor(),
		render.NewRenderer(t.TempDir()),
		func(identifier string) string { return identifier },
	)

	var lines []string
	result := p.Generate(context.Background(), []string{"100", "101"}, Options{
		OnLog: func(line string) { lines = append(lines, line) },
	})

	assert.Empty(t, result.Documents)
	assert.Equal(t, 2, result.Skipped)
	assert.Contains(t, lines, "Could not start the browser; no documents were generated.")
}

func TestGenerate_DeliveryFailureExcludesItem(t *testing.T) {
	browser := &fakeBrowser{}
	p := newTestPipeline(t, browser)

	result := p.Generate(context.Background(), []string{"100", "101", "102"}, Options{
		OnDocument: func(identifier, path string) error {
			if identifier == "101" {
				return errors.New("chat unreachable")
			}
			return nil
		},
	})

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "100", result.Documents[0].Identifier)
	assert.Equal(t, "102", result.Documents[1].Identifier)
	assert.Equal(t, 1, result.Skipped)
}

func TestGenerate_ReRunOverwritesDocuments(t *testing.T) {
	browser := &fakeBrowser{}
	p := newTestPipeline(t, browser)

	first := p.Generate(context.Background(), []string{"100"}, Options{})
	require.Len(t, first.Documents, 1)

	before, err := os.Stat(first.Documents[0].Path)
	require.NoError(t, err)

	second := p.Generate(context.Background(), []string{"100"}, Options{})
	require.Len(t, second.Documents, 1)
	assert.Equal(t, first.Documents[0].Path, second.Documents[0].Path)

	after, err := os.Stat(second.Documents[0].Path)
	require.NoError(t, err)
	assert.False(t, after.ModTime().Before(before.ModTime()))
}

func TestGenerate_AssignsJobIDAndTimings(t *testing.T) {
	browser := &fakeBrowser{}
	p := newTestPipeline(t, browser)

	result := p.Generate(context.Background(), []string{"100"}, Options{})

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", result.JobID.String())
	assert.False(t, result.StartedAt.IsZero())
	assert.False(t, result.CompletedAt.Before(result.StartedAt))
}

func TestGenerate_OrderIsSubsequenceOfInput(t *testing.T) {
	browser := &fakeBrowser{displayed: map[string]string{
		"101": "other",
		"103": "other",
	}}
	p := newTestPipeline(t, browser)

	ids := []string{"100", "101", "102", "103", "104"}
	result := p.Generate(context.Background(), ids, Options{})

	var got []string
	for _, doc := range result.Documents {
		got = append(got, doc.Identifier)
	}
	assert.Equal(t, []string{"100", "102", "104"}, got)
	assert.Equal(t, 2, result.Skipped)
}
