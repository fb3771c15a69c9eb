// Package testlabel renders a simple label image used by the test-print
// endpoint. In production the host application renders labels; this stands
// in for it when no host is attached.
package testlabel

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	qrSize  = 240
	padding = 16
)

// Generate renders a test label with a QR code and a caption line.
func Generate(caption string) (image.Image, error) {
	if caption == "" {
		caption = fmt.Sprintf("test print %s", time.Now().Format("2006-01-02 15:04"))
	}

	qr, err := qrcode.New(caption, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}
	qrImg := qr.Image(qrSize)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, caption).Ceil()

	width := qrSize + 2*padding
	if w := textWidth + 2*padding; w > width {
		width = w
	}
	height := qrSize + face.Metrics().Height.Ceil() + 3*padding

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	qrPos := image.Pt((width-qrSize)/2, padding)
	draw.Draw(canvas, image.Rectangle{Min: qrPos, Max: qrPos.Add(image.Pt(qrSize, qrSize))},
		qrImg, qrImg.Bounds().Min, draw.Src)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot: fixed.P(
			(width-textWidth)/2,
			qrSize+2*padding+face.Metrics().Ascent.Ceil(),
		),
	}
	drawer.DrawString(caption)

	return canvas, nil
}
