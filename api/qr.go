package api

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 300

// QRCodeEncoder renders QR payloads as PNG images with the highest error
// correction level, so printed tickets still scan when partly damaged.
type QRCodeEncoder struct {
	size int
}

func NewQRCodeEncoder() QRCodeEncoder {
	return QRCodeEncoder{size: defaultQRSize}
}

func (e QRCodeEncoder) Encode(payload []byte) ([]byte, error) {
	png, err := qrcode.Encode(string(payload), qrcode.Highest, e.size)
	if err != nil {
		return nil, fmt.Errorf("could not encode qr code: %w", err)
	}

	return png, nil
}
