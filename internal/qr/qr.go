// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// package qr renders meeting codes as QR images and decodes them back.
// The payload contract is strict: the image encodes exactly the
// meeting's opaque code string and nothing else, and any decoded string
// is a candidate meeting code without further parsing.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the pixel size for exported QR images.
const DefaultSize = 256

// ErrNoCode is returned when an image contains no readable QR code.
// Callers treat this as "nothing scanned yet", distinct from a
// transport error on the reader itself.
var ErrNoCode = errors.New("no QR code found in image")

// Encode renders code as a PNG of the given pixel size.
func Encode(code string, size int) ([]byte, error) {
	if code == "" {
		return nil, errors.New("empty code")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode QR: %w", err)
	}
	return png, nil
}

// EncodeFile writes the PNG rendering of code to path.
func EncodeFile(code, path string, size int) error {
	if code == "" {
		return errors.New("empty code")
	}
	if size <= 0 {
		size = DefaultSize
	}
	if err := qrcode.WriteFile(code, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("write QR file: %w", err)
	}
	return nil
}

// Terminal renders code as a half-block string suitable for a terminal.
func Terminal(code string) (string, error) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode QR: %w", err)
	}
	return q.ToSmallString(false), nil
}

// Decode extracts the embedded string from img.
func Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("prepare image: %w", err)
	}
	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", ErrNoCode
	}
	return result.GetText(), nil
}

// DecodeBytes decodes a PNG/JPEG byte slice.
func DecodeBytes(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return Decode(img)
}

// DecodeFile decodes the image at path.
func DecodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return Decode(img)
}

// ExportFilename returns the download name for a meeting's QR image,
// derived from its title the way the original web client named it.
func ExportFilename(title string) string {
	slug := make([]rune, 0, len(title))
	space := false
	for _, r := range title {
		switch {
		case r == ' ' || r == '\t':
			space = true
		default:
			if space && len(slug) > 0 {
				slug = append(slug, '-')
			}
			space = false
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			slug = append(slug, r)
		}
	}
	return fmt.Sprintf("qr-code-%s.png", string(slug))
}
