package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etpflow/etpflow/internal/domain"
)

// fakePage serves element texts from a map; selectors without an entry
// fall back to a default value, and selectors listed in missing fail.
type fakePage struct {
	texts    map[string]string
	missing  map[string]bool
	fallback string
}

func (p *fakePage) Text(selector string) (string, error) {
	if p.missing[selector] {
		return "", errors.New("element not found")
	}
	if text, ok := p.texts[selector]; ok {
		return text, nil
	}
	return p.fallback, nil
}

func (p *fakePage) Input(string, string) error { return nil }
func (p *fakePage) Click(string) error         { return nil }
func (p *fakePage) SetContent(string) error    { return nil }
func (p *fakePage) PDF() ([]byte, error)       { return nil, nil }
func (p *fakePage) Close() error               { return nil }

func TestExtract_FullFieldSet(t *testing.T) {
	page := &fakePage{
		texts: map[string]string{
			"#lbl_etpNo":          "UP/10012",
			"#lbl_name_of_lease":  "Shri Balaji Minerals",
			"#lbl_name_of_driver": "Ram Singh",
		},
		fallback: "value",
	}

	fields, err := NewExtractor().Extract(page, "10012")
	require.NoError(t, err)

	assert.Equal(t, "10012", fields["lbl_etpNo"])
	assert.Equal(t, "10012", fields["tp_num"])
	assert.Equal(t, "Shri Balaji Minerals", fields["lbl_name_of_lease"])
	assert.Equal(t, "Ram Singh", fields["lbl_name_of_driver"])
	// identity + tp_num + every labelled field
	assert.Len(t, fields, len(permitFields)+2)
}

func TestExtract_IdentityMismatch(t *testing.T) {
	page := &fakePage{
		texts:    map[string]string{"#lbl_etpNo": "UP/99999"},
		fallback: "value",
	}

	fields, err := NewExtractor().Extract(page, "10012")
	require.Error(t, err)
	assert.Nil(t, fields)

	var mismatch *domain.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "10012", mismatch.Requested)
	assert.Equal(t, "UP/99999", mismatch.Displayed)
}

func TestExtract_IdentityReadFailure(t *testing.T) {
	page := &fakePage{
		missing:  map[string]bool{"#lbl_etpNo": true},
		fallback: "value",
	}

	_, err := NewExtractor().Extract(page, "10012")
	require.Error(t, err)

	var mismatch *domain.MismatchError
	assert.False(t, errors.As(err, &mismatch), "a read failure is not a mismatch")
}

func TestExtract_SingleMissingFieldFailsExtraction(t *testing.T) {
	page := &fakePage{
		texts:    map[string]string{"#lbl_etpNo": "10012"},
		missing:  map[string]bool{"#lbl_name_of_driver": true},
		fallback: "value",
	}

	fields, err := NewExtractor().Extract(page, "10012")
	require.Error(t, err)
	assert.Nil(t, fields, "no partial extraction")
	assert.Contains(t, err.Error(), "lbl_name_of_driver")
}
