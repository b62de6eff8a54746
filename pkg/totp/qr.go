package totp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const qrSize = 200

// QRDataURI renders a provisioning URI as a scannable QR code and returns it
// as an inline data URI (base64 PNG) suitable for embedding in a JSON
// response.
func QRDataURI(provisioningURI string) (string, error) {
	code, err := qr.Encode(provisioningURI, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("totp: failed to encode qr code: %w", err)
	}

	scaled, err := barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("totp: failed to scale qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("totp: failed to encode qr png: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
