package pass

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// qrSize is the rendered image edge in pixels.
const qrSize = 300

// RenderDataURL encodes token as a QR code and returns it as a PNG data URL
// that clients can drop straight into an <img src>.
func RenderDataURL(token string) (string, error) {
	png, err := qrcode.Encode(token, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
