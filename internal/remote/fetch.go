// Package remote implements the portal-facing collaborators: listing
// permit records for a range and district, and advancing records through
// the issuing portal after login.
package remote

import (
	"context"
	"strconv"
	"strings"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/domain"
	"github.com/etpflow/etpflow/internal/observability"
)

// PageFetcher lists permit records by visiting the lookup page for every
// serial in the requested range and keeping the entries whose destination
// district matches the filter. Serials without a valid permit page are
// skipped silently; the range is taken as given, inclusive on both ends.
type PageFetcher struct {
	logger  *observability.Logger
	launch  browse.Launcher
	baseURL string
}

// NewPageFetcher creates a fetcher against the given lookup endpoint.
func NewPageFetcher(logger *observability.Logger, launch browse.Launcher, baseURL string) *PageFetcher {
	return &PageFetcher{
		logger:  logger,
		launch:  launch,
		baseURL: baseURL,
	}
}

// Fetch streams matching records in serial order. One browser is shared
// for the whole scan.
func (f *PageFetcher) Fetch(ctx context.Context, start, end int, district string, onRecord func(domain.Record) error) error {
	browser, err := f.launch(ctx)
	if err != nil {
		return domain.NavigationError("acquire browser", err)
	}
	defer func() { _ = browser.Close() }()

	wantDistrict := strings.ToLower(strings.TrimSpace(district))

	for serial := start; serial <= end; serial++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, ok := f.readOne(ctx, browser, strconv.Itoa(serial), wantDistrict)
		if !ok {
			continue
		}

		if err := onRecord(record); err != nil {
			return err
		}
	}

	return nil
}

// readOne visits one serial's lookup page and returns its record when the
// page is valid and the destination district matches.
func (f *PageFetcher) readOne(ctx context.Context, browser browse.Browser, identifier, wantDistrict string) (domain.Record, bool) {
	var record domain.Record

	page, err := browser.Open(ctx, f.baseURL+identifier)
	if err != nil {
		f.logger.Debug().Str("identifier", identifier).Err(err).Msg("Lookup page unreachable")
		return record, false
	}
	defer func() { _ = page.Close() }()

	displayed, err := page.Text("#lbl_etpNo")
	if err != nil || !strings.Contains(displayed, identifier) {
		f.logger.Debug().Str("identifier", identifier).Msg("No permit at serial")
		return record, false
	}

	destDistrict, err := page.Text("#lbl_destination_district")
	if err != nil {
		return record, false
	}

	if wantDistrict != "" && !strings.Contains(strings.ToLower(destDistrict), wantDistrict) {
		return record, false
	}

	address, err := page.Text("#lbl_destination_address")
	if err != nil {
		return record, false
	}
	quantity, err := page.Text("#lbl_qty_to_Transport")
	if err != nil {
		return record, false
	}
	generatedOn, err := page.Text("#txt_etp_generated_on")
	if err != nil {
		return record, false
	}

	record = domain.Record{
		Identifier:          identifier,
		DestinationDistrict: strings.TrimSpace(destDistrict),
		DestinationAddress:  strings.TrimSpace(address),
		QuantityToTransport: strings.TrimSpace(quantity),
		GeneratedOn:         strings.TrimSpace(generatedOn),
	}
	return record, true
}
