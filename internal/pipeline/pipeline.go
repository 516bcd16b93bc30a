// Package pipeline orchestrates batch permit document generation: one
// shared browser per batch, one page per identifier, strictly sequential,
// with per-item failure isolation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/codes"
	"github.com/etpflow/etpflow/internal/domain"
	"github.com/etpflow/etpflow/internal/extract"
	"github.com/etpflow/etpflow/internal/observability"
	"github.com/etpflow/etpflow/internal/render"
)

// Options carries the caller-supplied sinks for one batch. OnLog receives
// human-readable progress lines; OnDocument, if set, is invoked once per
// generated document and is awaited before the next identifier is
// processed. An OnDocument error excludes that item from the result.
type Options struct {
	OnLog      func(line string)
	OnDocument func(identifier, path string) error
}

// BatchResult is the outcome of one Generate call. Documents preserves
// the relative order of the input identifiers, skipping failed items.
type BatchResult struct {
	JobID       uuid.UUID
	Documents   []domain.GeneratedDocument
	Skipped     int
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// Pipeline generates permit documents for lists of identifiers.
type Pipeline struct {
	logger    *observability.Logger
	launch    browse.Launcher
	extractor *extract.Extractor
	renderer  *render.Renderer
	lookupURL func(identifier string) string
}

// NewPipeline creates a batch generation pipeline. lookupURL maps an
// identifier to its canonical permit lookup URL.
func NewPipeline(
	logger *observability.Logger,
	launch browse.Launcher,
	extractor *extract.Extractor,
	renderer *render.Renderer,
	lookupURL func(identifier string) string,
) *Pipeline {
	return &Pipeline{
		logger:    logger,
		launch:    launch,
		extractor: extractor,
		renderer:  renderer,
		lookupURL: lookupURL,
	}
}

// Generate processes the identifiers in order and returns the documents
// that were generated and delivered. It never fails past its own boundary:
// every per-item error is reported through the log sink and the batch
// moves on to the next identifier.
func (p *Pipeline) Generate(ctx context.Context, identifiers []string, opts Options) *BatchResult {
	result := &BatchResult{
		JobID:     uuid.New(),
		StartedAt: time.Now(),
	}

	log := func(line string) {
		if opts.OnLog != nil {
			opts.OnLog(line)
		}
	}

	if len(identifiers) == 0 {
		p.logger.Info().
			Str("job_id", result.JobID.String()).
			Msg("No identifiers to generate")
		log("No permit numbers provided.")
		result.CompletedAt = time.Now()
		result.Duration = result.CompletedAt.Sub(result.StartedAt)
		return result
	}

	p.logger.Info().
		Str("job_id", result.JobID.String()).
		Int("identifiers", len(identifiers)).
		Msg("Starting document generation batch")

	// One browser context amortizes the launch cost across the batch.
	browser, err := p.launch(ctx)
	if err != nil {
		p.logger.Error().
			Str("job_id", result.JobID.String()).
			Err(err).
			Msg("Failed to acquire browser context")
		log("Could not start the browser; no documents were generated.")
		result.Skipped = len(identifiers)
		result.CompletedAt = time.Now()
		result.Duration = result.CompletedAt.Sub(result.StartedAt)
		return result
	}
	defer func() {
		if err := browser.Close(); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to close browser context")
		}
	}()

	for _, identifier := range identifiers {
		doc, err := p.generateOne(ctx, browser, identifier)
		if err != nil {
			result.Skipped++
			p.reportItemFailure(result.JobID, identifier, err, log)
			continue
		}

		if opts.OnDocument != nil {
			// Deliver before moving on so page resources are never
			// interleaved across items.
			if err := opts.OnDocument(doc.Identifier, doc.Path); err != nil {
				result.Skipped++
				p.logger.Warn().
					Str("job_id", result.JobID.String()).
					Str("identifier", identifier).
					Err(err).
					Msg("Document delivery failed")
				log(fmt.Sprintf("Failed to deliver document for %s: %v", identifier, err))
				continue
			}
		}

		result.Documents = append(result.Documents, doc)
	}

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	p.logger.Info().
		Str("job_id", result.JobID.String()).
		Int("generated", len(result.Documents)).
		Int("skipped", result.Skipped).
		Dur("duration", result.Duration).
		Msg("Document generation batch completed")

	return result
}

// generateOne handles a single identifier: navigate, generate the QR code,
// extract and cross-validate the fields, render, and persist.
func (p *Pipeline) generateOne(ctx context.Context, browser browse.Browser, identifier string) (domain.GeneratedDocument, error) {
	var doc domain.GeneratedDocument

	url := p.lookupURL(identifier)

	// The QR code encodes the lookup URL and is generated regardless of
	// how the page visit turns out.
	qrDataURI, qrErr := codes.DataURI(url)

	page, err := browser.Open(ctx, url)
	if err != nil {
		return doc, domain.NavigationError("open lookup page", err)
	}
	defer func() { _ = page.Close() }()

	if qrErr != nil {
		return doc, domain.RenderError("generate qr code", qrErr)
	}

	fields, err := p.extractor.Extract(page, identifier)
	if err != nil {
		return doc, err
	}

	fields["qr_code_base64"] = qrDataURI
	html := p.renderer.Fill(fields)

	renderPage, err := browser.Open(ctx, "about:blank")
	if err != nil {
		return doc, domain.RenderError("open render page", err)
	}
	defer func() { _ = renderPage.Close() }()

	path, err := p.renderer.Rasterize(renderPage, html, identifier)
	if err != nil {
		return doc, err
	}

	return domain.GeneratedDocument{Identifier: identifier, Path: path}, nil
}

// reportItemFailure logs one skipped identifier with enough detail to
// distinguish an identity mismatch from other extraction failures.
func (p *Pipeline) reportItemFailure(jobID uuid.UUID, identifier string, err error, log func(string)) {
	var mismatch *domain.MismatchError
	if errors.As(err, &mismatch) {
		p.logger.Warn().
			Str("job_id", jobID.String()).
			Str("identifier", identifier).
			Str("displayed", mismatch.Displayed).
			Msg("Identity check failed")
		log(fmt.Sprintf("Permit %s skipped: page displayed %q instead.", identifier, mismatch.Displayed))
		return
	}

	p.logger.Warn().
		Str("job_id", jobID.String()).
		Str("identifier", identifier).
		Err(err).
		Msg("Identifier skipped")
	log(fmt.Sprintf("Permit %s not found or invalid: %v", identifier, err))
}
