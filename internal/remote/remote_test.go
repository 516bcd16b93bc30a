package remote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/domain"
	"github.com/etpflow/etpflow/internal/observability"
)

// permitEntry backs one serial's lookup page in the fake portal.
type permitEntry struct {
	district string
	address  string
	quantity string
	date     string
}

type fakePage struct {
	portal     *fakePortal
	identifier string
	entry      *permitEntry
	clicked    []string
	inputs     map[string]string
}

func (p *fakePage) Text(selector string) (string, error) {
	if p.entry == nil {
		return "", errors.New("element not found")
	}

	switch selector {
	case "#lbl_etpNo":
		return "UP/" + p.identifier, nil
	case "#lbl_destination_district":
		return p.entry.district, nil
	case "#lbl_destination_address":
		return p.entry.address, nil
	case "#lbl_qty_to_Transport":
		return p.entry.quantity, nil
	case "#txt_etp_generated_on":
		return p.entry.date, nil
	}

	return "", errors.New("element not found")
}

func (p *fakePage) Input(selector, text string) error {
	if p.inputs == nil {
		p.inputs = map[string]string{}
	}
	p.inputs[selector] = text
	p.portal.inputs[selector] = text
	return nil
}

func (p *fakePage) Click(selector string) error {
	if p.portal.clickErr != nil && selector == "#btn_confirm" && p.identifier == p.portal.failConfirm {
		return p.portal.clickErr
	}
	p.clicked = append(p.clicked, selector)
	p.portal.clicks = append(p.portal.clicks, p.identifier+":"+selector)
	return nil
}

func (p *fakePage) SetContent(html string) error { return nil }
func (p *fakePage) PDF() ([]byte, error)         { return nil, errors.New("not a render page") }
func (p *fakePage) Close() error                 { return nil }

type fakePortal struct {
	entries     map[string]*permitEntry
	opened      []string
	clicks      []string
	inputs      map[string]string
	clickErr    error
	failConfirm string
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		entries: map[string]*permitEntry{},
		inputs:  map[string]string{},
	}
}

func (f *fakePortal) Open(ctx context.Context, url string) (browse.Page, error) {
	f.opened = append(f.opened, url)
	identifier := url[strings.LastIndex(url, "=")+1:]
	return &fakePage{portal: f, identifier: identifier, entry: f.entries[identifier]}, nil
}

func (f *fakePortal) Close() error { return nil }

func (f *fakePortal) launcher() browse.Launcher {
	return func(ctx context.Context) (browse.Browser, error) { return f, nil }
}

const lookupBase = "https://example.test/lookup?eId="

func TestFetch_StreamsMatchingRecordsInOrder(t *testing.T) {
	portal := newFakePortal()
	portal.entries["100"] = &permitEntry{district: "Sonbhadra", address: "a", quantity: "20", date: "01/08/2026"}
	portal.entries["102"] = &permitEntry{district: "Sonbhadra", address: "b", quantity: "30", date: "01/08/2026"}

	fetcher := NewPageFetcher(observability.Nop(), portal.launcher(), lookupBase)

	var got []domain.Record
	err := fetcher.Fetch(context.Background(), 100, 103, "sonbhadra", func(r domain.Record) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "100", got[0].Identifier)
	assert.Equal(t, "102", got[1].Identifier)
	assert.Equal(t, "Sonbhadra", got[0].DestinationDistrict)

	// Inclusive on both ends: four serials visited.
	assert.Len(t, portal.opened, 4)
}

func TestFetch_DistrictFilterIsCaseInsensitive(t *testing.T) {
	portal := newFakePortal()
	portal.entries["100"] = &permitEntry{district: "SONBHADRA", address: "a", quantity: "20", date: "01/08/2026"}
	portal.entries["101"] = &permitEntry{district: "Mirzapur", address: "b", quantity: "30", date: "01/08/2026"}

	fetcher := NewPageFetcher(observability.Nop(), portal.launcher(), lookupBase)

	var got []string
	err := fetcher.Fetch(context.Background(), 100, 101, "Sonbhadra", func(r domain.Record) error {
		got = append(got, r.Identifier)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"100"}, got)
}

func TestFetch_CallbackErrorStopsTheScan(t *testing.T) {
	portal := newFakePortal()
	portal.entries["100"] = &permitEntry{district: "Sonbhadra", address: "a", quantity: "20", date: "01/08/2026"}
	portal.entries["101"] = &permitEntry{district: "Sonbhadra", address: "b", quantity: "30", date: "01/08/2026"}

	fetcher := NewPageFetcher(observability.Nop(), portal.launcher(), lookupBase)

	stop := errors.New("stop")
	err := fetcher.Fetch(context.Background(), 100, 105, "", func(r domain.Record) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Len(t, portal.opened, 1)
}

func TestFetch_CancelledContextStops(t *testing.T) {
	portal := newFakePortal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewPageFetcher(observability.Nop(), portal.launcher(), lookupBase)

	err := fetcher.Fetch(ctx, 100, 200, "", func(r domain.Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, portal.opened)
}

func TestFetch_LaunchFailureReturnsError(t *testing.T) {
	launch := func(ctx context.Context) (browse.Browser, error) {
		return nil, errors.New("chrome not found")
	}

	fetcher := NewPageFetcher(observability.Nop(), launch, lookupBase)

	err := fetcher.Fetch(context.Background(), 100, 101, "", func(r domain.Record) error { return nil })
	assert.Error(t, err)
}

func TestAdvance_LogsInOnceAndConfirmsEveryRecord(t *testing.T) {
	portal := newFakePortal()
	advancer := NewPortalAdvancer(observability.Nop(), portal.launcher(),
		"https://example.test/login?p=1", "operator", "secret", lookupBase)

	records := []domain.Record{{Identifier: "100"}, {Identifier: "101"}}

	var lines []string
	err := advancer.Advance(context.Background(), records, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)

	assert.Equal(t, "operator", portal.inputs["#txt_username"])
	assert.Equal(t, "secret", portal.inputs["#txt_password"])
	assert.Contains(t, portal.clicks, "100:#btn_confirm")
	assert.Contains(t, portal.clicks, "101:#btn_confirm")

	assert.Contains(t, lines, "Logged in to the portal.")
	assert.Contains(t, lines, "Processed 100 (1/2)")
	assert.Contains(t, lines, "Processed 101 (2/2)")
}

func TestAdvance_FailedRecordDoesNotStopTheRest(t *testing.T) {
	portal := newFakePortal()
	portal.clickErr = errors.New("confirm rejected")
	portal.failConfirm = "100"

	advancer := NewPortalAdvancer(observability.Nop(), portal.launcher(),
		"https://example.test/login?p=1", "operator", "secret", lookupBase)

	records := []domain.Record{{Identifier: "100"}, {Identifier: "101"}}

	var lines []string
	err := advancer.Advance(context.Background(), records, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)

	var failed, processed bool
	for _, line := range lines {
		if strings.Contains(line, "Failed to process 100") {
			failed = true
		}
		if line == "Processed 101 (2/2)" {
			processed = true
		}
	}
	assert.True(t, failed)
	assert.True(t, processed)
}
