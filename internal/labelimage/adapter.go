// Package labelimage adapts rendered label bitmaps to the physical printable
// geometry of Brother label media before raster conversion.
package labelimage

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/media"
	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

// Result is the adapted printable image plus the resolved media parameters
// the raster conversion needs.
type Result struct {
	Image image.Image
	Label media.Label
	// Red is set only for the dual-color (black/red) media identifier.
	Red bool
}

// EffectiveRotation maps the configured rotation onto the rotation actually
// applied. Raster output is fed sideways through the print head, so a fixed
// 90 degree correction is folded in.
func EffectiveRotation(configured int) int {
	return ((configured+90)%360 + 360) % 360
}

// Adapt resolves the media identifier, applies the effective rotation and
// fits the image to the media's printable area.
//
// Die-cut and round die-cut media get an output sized exactly to the
// printable dots: the source is scaled to fit with aspect ratio preserved
// and centered on a white canvas. Continuous media passes through unscaled,
// except that a source wider than the printable width is scaled down to it
// rather than overflowing the print head.
func Adapt(src image.Image, identifier string, rotation int) (Result, error) {
	label, ok := media.FindLabel(identifier)
	if !ok {
		return Result{}, fmt.Errorf("unknown label media %q", identifier)
	}

	img := rotate(src, EffectiveRotation(rotation))

	switch label.FormFactor {
	case media.DieCut, media.RoundDieCut:
		img = fitToCanvas(img, label.PrintableWidth(), label.PrintableHeight())
	default:
		if w := img.Bounds().Dx(); w > label.PrintableWidth() {
			logger.Warn("Label image wider than printable area, scaling down",
				zap.Int("width", w),
				zap.Int("printable_width", label.PrintableWidth()),
				zap.String("media", identifier))
			img = imaging.Resize(img, label.PrintableWidth(), 0, imaging.Lanczos)
		}
	}

	return Result{
		Image: img,
		Label: label,
		Red:   identifier == media.RedIdentifier,
	}, nil
}

// rotate turns the image by the given amount, expanding the canvas to fit.
// Zero is a no-op.
func rotate(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}

// fitToCanvas scales img (up or down) to fit entirely within w x h
// preserving aspect ratio and centers it on a white canvas of exactly that
// size.
func fitToCanvas(img image.Image, w, h int) image.Image {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	fitted := img
	if srcW > 0 && srcH > 0 && (srcW != w || srcH != h) {
		scale := float64(w) / float64(srcW)
		if s := float64(h) / float64(srcH); s < scale {
			scale = s
		}
		tw := int(float64(srcW) * scale)
		th := int(float64(srcH) * scale)
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
		fitted = imaging.Resize(img, tw, th, imaging.Lanczos)
	}

	canvas := imaging.New(w, h, color.White)
	return imaging.PasteCenter(canvas, fitted)
}
