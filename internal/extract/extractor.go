// Package extract reads the named permit fields off a live lookup page,
// gated by an identity check on the displayed permit number.
package extract

import (
	"strings"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/domain"
)

// identitySelector is the element carrying the permit number the page
// itself claims to display. Nothing else is read until it matches.
const identitySelector = "#lbl_etpNo"

// permitFields lists every labelled value read from a valid lookup page,
// in page order. Keys double as template placeholder names.
var permitFields = []struct {
	Key      string
	Selector string
}{
	{"lbl_name_of_lease", "#lbl_name_of_lease"},
	{"lbl_mobile_no", "#lbl_mobile_no"},
	{"lbl_SerialNumber", "#lbl_SerialNumber"},
	{"lbl_LeaseId", "#lbl_LeaseId"},
	{"lbl_leaseDetails", "#lbl_leaseDetails"},
	{"lbl_tehsil", "#lbl_tehsil"},
	{"lbl_district", "#lbl_district"},
	{"lbl_lease_address", "#lbl_lease_address"},
	{"lbl_qty_to_Transport", "#lbl_qty_to_Transport"},
	{"lbl_type_of_mining_mineral", "#lbl_type_of_mining_mineral"},
	{"lbl_destination_district", "#lbl_destination_district"},
	{"lbl_loadingfrom", "#lbl_loadingfrom"},
	{"lbl_destination_address", "#lbl_destination_address"},
	{"lbl_distrance", "#lbl_distrance"},
	{"txt_etp_generated_on", "#txt_etp_generated_on"},
	{"txt_etp_valid_upto", "#txt_etp_valid_upto"},
	{"lbl_travel_duration", "#lbl_travel_duration"},
	{"pit", "#pit"},
	{"lbl_registraton_number_of_vehicle", "#lbl_registraton_number_of_vehicle"},
	{"lbl_name_of_driver", "#lbl_name_of_driver"},
	{"lbl_mobile_number_of_driver", "#lbl_mobile_number_of_driver"},
	{"lbl_rc_gvw", "#lbl_rc_gvw"},
	{"lbl_v_cap", "#lbl_v_cap"},
}

// Extractor reads the fixed permit field set off a lookup page.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract verifies the page displays the requested identifier, then reads
// the full field set. On a mismatch it returns a *domain.MismatchError and
// no fields; a single failed field read fails the whole extraction. It
// never retries and never returns a partial set.
func (e *Extractor) Extract(page browse.Page, identifier string) (domain.Fields, error) {
	displayed, err := page.Text(identitySelector)
	if err != nil {
		return nil, domain.ExtractionError("read displayed identifier", err)
	}

	if !strings.Contains(displayed, identifier) {
		return nil, &domain.MismatchError{
			Requested: identifier,
			Displayed: strings.TrimSpace(displayed),
		}
	}

	fields := domain.Fields{
		"lbl_etpNo": identifier,
		"tp_num":    identifier,
	}

	for _, f := range permitFields {
		value, err := page.Text(f.Selector)
		if err != nil {
			return nil, domain.ExtractionError("read field "+f.Key, err)
		}
		fields[f.Key] = value
	}

	return fields, nil
}
