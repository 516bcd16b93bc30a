package remote

import (
	"context"
	"fmt"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/domain"
	"github.com/etpflow/etpflow/internal/observability"
)

// PortalAdvancer logs into the issuing portal and advances fetched records
// so their permit documents become available for lookup.
type PortalAdvancer struct {
	logger   *observability.Logger
	launch   browse.Launcher
	loginURL string
	username string
	password string
	baseURL  string
}

// NewPortalAdvancer creates an advancer for the configured portal account.
func NewPortalAdvancer(logger *observability.Logger, launch browse.Launcher, loginURL, username, password, baseURL string) *PortalAdvancer {
	return &PortalAdvancer{
		logger:   logger,
		launch:   launch,
		loginURL: loginURL,
		username: username,
		password: password,
		baseURL:  baseURL,
	}
}

// Advance authenticates once, then processes every record in order,
// emitting a progress line per record. A record that fails to process is
// reported and does not stop the rest.
func (a *PortalAdvancer) Advance(ctx context.Context, records []domain.Record, onLog func(string)) error {
	browser, err := a.launch(ctx)
	if err != nil {
		return domain.NavigationError("acquire browser", err)
	}
	defer func() { _ = browser.Close() }()

	if err := a.login(ctx, browser); err != nil {
		return err
	}
	onLog("Logged in to the portal.")

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := a.processRecord(ctx, browser, record); err != nil {
			a.logger.Warn().
				Str("identifier", record.Identifier).
				Err(err).
				Msg("Failed to process record")
			onLog(fmt.Sprintf("Failed to process %s: %v", record.Identifier, err))
			continue
		}

		onLog(fmt.Sprintf("Processed %s (%d/%d)", record.Identifier, i+1, len(records)))
	}

	return nil
}

// login fills the portal credentials and submits the login form.
func (a *PortalAdvancer) login(ctx context.Context, browser browse.Browser) error {
	page, err := browser.Open(ctx, a.loginURL)
	if err != nil {
		return domain.NavigationError("open login page", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.Input("#txt_username", a.username); err != nil {
		return domain.NavigationError("enter username", err)
	}
	if err := page.Input("#txt_password", a.password); err != nil {
		return domain.NavigationError("enter password", err)
	}
	if err := page.Click("#btn_login"); err != nil {
		return domain.NavigationError("submit login", err)
	}

	return nil
}

// processRecord opens the record's permit page in the authenticated
// session and confirms it, which marks the permit as issued.
func (a *PortalAdvancer) processRecord(ctx context.Context, browser browse.Browser, record domain.Record) error {
	page, err := browser.Open(ctx, a.baseURL+record.Identifier)
	if err != nil {
		return domain.NavigationError("open permit page", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.Click("#btn_confirm"); err != nil {
		return domain.NavigationError("confirm permit", err)
	}

	return nil
}
