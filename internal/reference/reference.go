// Package reference builds and decodes the canonical instrument reference
// printed on QR labels: <origin>/instrument/<id>.
package reference

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const PathPrefix = "/instrument/"

var ErrInvalidReference = errors.New("invalid instrument code")

var (
	reInstrumentPath = regexp.MustCompile(`instrument/([^/?]+)`)
	reRawID          = regexp.MustCompile(`^[A-Za-z0-9\-_]+$`)
)

// URL returns the canonical reference for an instrument.
func URL(origin, id string) string {
	return strings.TrimRight(origin, "/") + PathPrefix + id
}

// Parse extracts an instrument id from a decoded QR payload or a manually
// typed code. A full reference URL and a bare id are both accepted.
func Parse(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidReference)
	}
	if m := reInstrumentPath.FindStringSubmatch(code); m != nil {
		return m[1], nil
	}
	if reRawID.MatchString(code) {
		return code, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReference, code)
}

// QRCode encodes url as a PNG image of size x size pixels.
func QRCode(url string, size int) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
