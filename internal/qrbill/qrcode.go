package qrbill

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the default size of generated QR codes in pixels.
const DefaultQRSize = 543

// QRRecoveryLevel is the error recovery level for QR codes.
// The QR-bill standard mandates level M (15%).
var QRRecoveryLevel = qrcode.Medium

// The Swiss cross is 7 mm wide on a 46 mm code.
const swissCrossRatio = 7.0 / 46.0

// GenerateQRPNG generates the QR code of a payload as PNG bytes, with the
// Swiss cross drawn in the center.
func GenerateQRPNG(payload string, size int) ([]byte, error) {
	img, err := generateQRImage(payload, size)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateQRBase64 generates a QR code and returns it as a Base64 data URL.
// The returned string can be used directly in an HTML img src attribute.
func GenerateQRBase64(payload string, size int) (string, error) {
	png, err := GenerateQRPNG(payload, size)
	if err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func generateQRImage(payload string, size int) (image.Image, error) {
	if size <= 0 {
		size = DefaultQRSize
	}

	qr, err := qrcode.New(payload, QRRecoveryLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	qr.DisableBorder = true

	src := qr.Image(size)
	bounds := src.Bounds()
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, src, bounds.Min, draw.Src)
	drawSwissCross(img)

	return img, nil
}

// drawSwissCross paints a white-framed black square with a white cross in
// the middle of img.
func drawSwissCross(img *image.RGBA) {
	b := img.Bounds()
	side := int(float64(b.Dx()) * swissCrossRatio)
	if side < 7 {
		return
	}

	cx := b.Min.X + b.Dx()/2
	cy := b.Min.Y + b.Dy()/2
	white := image.NewUniform(color.White)
	black := image.NewUniform(color.Black)

	square := func(half int) image.Rectangle {
		return image.Rect(cx-half, cy-half, cx+half, cy+half)
	}

	frame := side / 14
	if frame < 1 {
		frame = 1
	}
	draw.Draw(img, square(side/2+frame), white, image.Point{}, draw.Src)
	draw.Draw(img, square(side/2), black, image.Point{}, draw.Src)

	// Cross arms: 3/5 of the square long, 1/5 wide.
	arm := side * 3 / 10
	thick := side / 10
	draw.Draw(img, image.Rect(cx-arm, cy-thick, cx+arm, cy+thick), white, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(cx-thick, cy-arm, cx+thick, cy+arm), white, image.Point{}, draw.Src)
}
