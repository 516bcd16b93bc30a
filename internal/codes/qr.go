// Package codes generates scannable QR codes as inline embeddable payloads.
package codes

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const pngSize = 256

// DataURI encodes the given URL into a QR code PNG and returns it as a
// data URI suitable for an <img> src attribute. The output is deterministic
// for a given URL; nothing is cached or written to disk.
func DataURI(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, pngSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
