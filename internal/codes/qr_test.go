package codes

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI_EmbeddablePNG(t *testing.T) {
	uri, err := DataURI("https://example.test/lookup?eId=10012")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestDataURI_Deterministic(t *testing.T) {
	first, err := DataURI("https://example.test/lookup?eId=10012")
	require.NoError(t, err)

	second, err := DataURI("https://example.test/lookup?eId=10012")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDataURI_EmptyURLFails(t *testing.T) {
	_, err := DataURI("")
	assert.Error(t, err)
}
