package reference

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	assert.Equal(t, "https://lab.example.com/instrument/abc-123", URL("https://lab.example.com/", "abc-123"))
	assert.Equal(t, "http://localhost:8080/instrument/x", URL("http://localhost:8080", "x"))
}

func TestParse(t *testing.T) {
	valid := map[string]string{
		"https://lab.example.com/instrument/1716392001234":        "1716392001234",
		"http://localhost:3000/instrument/abc-DEF_9?from=scanner": "abc-DEF_9",
		"/instrument/7f0c2d4e-0000-4000-8000-000000000001/":       "7f0c2d4e-0000-4000-8000-000000000001",
		"  instrument/short ":                                      "short",
		"7f0c2d4e-0000-4000-8000-000000000001":                     "7f0c2d4e-0000-4000-8000-000000000001",
		"RAW_id-42":                                                "RAW_id-42",
	}
	for code, want := range valid {
		got, err := Parse(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got, code)
	}

	invalid := []string{
		"",
		"   ",
		"https://example.com/devices/12",
		"hello world",
		"id;drop",
		"https://example.com/instrument/",
	}
	for _, code := range invalid {
		_, err := Parse(code)
		assert.ErrorIs(t, err, ErrInvalidReference, code)
	}
}

func TestRoundTrip(t *testing.T) {
	id, err := Parse(URL("https://lab.example.com", "abc-123"))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestQRCode(t *testing.T) {
	png, err := QRCode(URL("https://lab.example.com", "abc-123"), 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
