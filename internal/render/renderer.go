// Package render merges extracted permit fields into the document template
// and rasterizes the result into a persisted PDF.
package render

import (
	_ "embed"
	"os"
	"path/filepath"
	"regexp"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/domain"
)

//go:embed template.html
var documentTemplate string

// placeholderPattern matches ${name} and $name references plus the $$
// escape, mirroring the template dialect the document was authored in.
var placeholderPattern = regexp.MustCompile(`\$(?:\$|\{([A-Za-z_][A-Za-z0-9_]*)\}|([A-Za-z_][A-Za-z0-9_]*))`)

// Renderer produces one persisted document per identifier under a fixed
// output directory. Re-rendering an identifier overwrites the prior file.
type Renderer struct {
	template  string
	outputDir string
}

// NewRenderer creates a Renderer writing into outputDir.
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{
		template:  documentTemplate,
		outputDir: outputDir,
	}
}

// Fill substitutes the named fields into the template. Substitution is
// deliberately lenient: a placeholder with no matching field is left
// verbatim rather than failing.
func (r *Renderer) Fill(fields domain.Fields) string {
	return placeholderPattern.ReplaceAllStringFunc(r.template, func(match string) string {
		if match == "$$" {
			return "$"
		}

		name := match[1:]
		if name[0] == '{' {
			name = name[1 : len(name)-1]
		}

		if value, ok := fields[name]; ok {
			return value
		}
		return match
	})
}

// DocumentPath returns where the document for an identifier is persisted.
func (r *Renderer) DocumentPath(identifier string) string {
	return filepath.Join(r.outputDir, identifier+".pdf")
}

// Rasterize loads the resolved HTML into the given page, prints it to PDF,
// and persists it at the identifier's document path.
func (r *Renderer) Rasterize(page browse.Page, html, identifier string) (string, error) {
	if err := page.SetContent(html); err != nil {
		return "", domain.RenderError("set document content", err)
	}

	pdf, err := page.PDF()
	if err != nil {
		return "", domain.RenderError("rasterize document", err)
	}

	path := r.DocumentPath(identifier)
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", domain.IOError("persist document "+path, err)
	}

	return path, nil
}
