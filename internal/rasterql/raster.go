// Package rasterql builds Brother QL/PT raster instruction blobs and sends
// them to a printer over the network or a USB device file. Callers treat the
// instruction blob as opaque.
package rasterql

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/stockroomlabs/brotherlabel/internal/media"
)

// ConvertOptions control how the printable images are encoded.
type ConvertOptions struct {
	// LabelID is the media identifier, used for the media/quality command.
	LabelID string
	// Cut requests an automatic cut after each label.
	Cut bool
	// Compress enables packbits compression on models that support it.
	Compress bool
	// HQ selects high quality (slower) printing.
	HQ bool
	// Red enables the second print plane on dual-color media.
	Red bool
}

// Raster builds instruction blobs for one printer model.
type Raster struct {
	Model media.Model
}

// NewRaster returns a builder for the named printer model.
func NewRaster(modelName string) (*Raster, error) {
	m, ok := media.FindModel(modelName)
	if !ok {
		return nil, fmt.Errorf("unknown printer model %q", modelName)
	}
	return &Raster{Model: m}, nil
}

// Convert encodes the given printable images into a single instruction blob.
// Images must already match the media geometry; no scaling happens here.
func (r *Raster) Convert(images []image.Image, opts ConvertOptions) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to convert")
	}

	compress := opts.Compress && r.Model.Compression
	red := opts.Red && r.Model.TwoColor

	var buf bytes.Buffer

	// Invalidate + initialize clears whatever state a previous job left
	buf.Write(make([]byte, 200))
	buf.Write([]byte{0x1b, 0x40})

	for page, img := range images {
		r.writeMediaCommand(&buf, img, opts, page > 0)

		if r.Model.CutSupport {
			cutFlag := byte(0x00)
			if opts.Cut {
				cutFlag = 0x40
			}
			buf.Write([]byte{0x1b, 0x69, 0x4d, cutFlag})
			if opts.Cut {
				// cut after every label
				buf.Write([]byte{0x1b, 0x69, 0x41, 0x01})
			}
		}

		expanded := byte(0x00)
		if opts.Cut {
			expanded |= 0x08 // cut at end
		}
		if red {
			expanded |= 0x01 // two-color mode
		}
		buf.Write([]byte{0x1b, 0x69, 0x4b, expanded})

		// feed margin: continuous stock needs a lead-in, die-cut does not
		margin := uint16(0)
		if _, h := labelDimensionsMM(opts.LabelID); h == 0 {
			margin = 35
		}
		buf.Write([]byte{0x1b, 0x69, 0x64, byte(margin & 0xff), byte(margin >> 8)})

		if compress {
			buf.Write([]byte{0x4d, 0x02})
		} else {
			buf.Write([]byte{0x4d, 0x00})
		}

		if err := r.writeRasterLines(&buf, img, compress, red); err != nil {
			return nil, err
		}

		if page == len(images)-1 {
			buf.WriteByte(0x1a) // print with feeding
		} else {
			buf.WriteByte(0x0c) // print, more pages follow
		}
	}

	return buf.Bytes(), nil
}

// writeMediaCommand emits the media/quality (ESC i z) command.
func (r *Raster) writeMediaCommand(buf *bytes.Buffer, img image.Image, opts ConvertOptions, laterPage bool) {
	widthMM, lengthMM := labelDimensionsMM(opts.LabelID)

	mediaType := byte(0x0a) // continuous
	if lengthMM > 0 {
		mediaType = 0x0b // die-cut
	}

	flags := byte(0x80 | 0x02 | 0x04 | 0x08)
	if opts.HQ {
		flags |= 0x40
	}

	lines := img.Bounds().Dy()
	startPage := byte(0x00)
	if laterPage {
		startPage = 0x01
	}

	buf.Write([]byte{
		0x1b, 0x69, 0x7a,
		flags,
		mediaType,
		byte(widthMM),
		byte(lengthMM),
		byte(lines), byte(lines >> 8), byte(lines >> 16), byte(lines >> 24),
		startPage,
		0x00,
	})
}

// writeRasterLines converts the image into per-row raster commands.
func (r *Raster) writeRasterLines(buf *bytes.Buffer, img image.Image, compress, red bool) error {
	bounds := img.Bounds()
	rowBytes := r.Model.BytesPerRow
	if bounds.Dx() > rowBytes*8 {
		return fmt.Errorf("image width %d exceeds %d printable dots of model %s",
			bounds.Dx(), rowBytes*8, r.Model.Name)
	}

	blackRow := make([]byte, rowBytes)
	redRow := make([]byte, rowBytes)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for i := range blackRow {
			blackRow[i] = 0
			redRow[i] = 0
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			col := x - bounds.Min.X
			c := img.At(x, y)
			if red && isRed(c) {
				redRow[col/8] |= 0x80 >> uint(col%8)
			} else if isInk(c) {
				blackRow[col/8] |= 0x80 >> uint(col%8)
			}
		}

		if red {
			writeRow(buf, []byte{0x77, 0x01}, blackRow, compress)
			writeRow(buf, []byte{0x77, 0x02}, redRow, compress)
		} else {
			writeRow(buf, []byte{0x67, 0x00}, blackRow, compress)
		}
	}
	return nil
}

func writeRow(buf *bytes.Buffer, prefix, row []byte, compress bool) {
	data := row
	if compress {
		data = packBits(row)
	}
	buf.Write(prefix)
	buf.WriteByte(byte(len(data)))
	buf.Write(data)
}

// isInk reports whether the pixel prints black (luminance threshold).
func isInk(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return false
	}
	lum := (299*r + 587*g + 114*b) / 1000
	return lum < 0x8000
}

// isRed reports whether the pixel belongs on the red plane.
func isRed(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return false
	}
	return r > 0xa000 && g < 0x8000 && b < 0x8000
}

// packBits run-length encodes one raster row (TIFF PackBits).
func packBits(row []byte) []byte {
	var out []byte
	i := 0
	for i < len(row) {
		// count a run of identical bytes
		run := 1
		for i+run < len(row) && run < 128 && row[i+run] == row[i] {
			run++
		}
		if run > 1 {
			out = append(out, byte(257-run), row[i])
			i += run
			continue
		}
		// literal stretch up to the next run
		start := i
		for i < len(row) && i-start < 128 {
			if i+2 < len(row) && row[i+1] == row[i] && row[i+2] == row[i] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, row[start:i]...)
	}
	return out
}

// labelDimensionsMM derives the physical tape width/length in millimeters
// from a media identifier such as "62", "62red", "29x90" or "d24".
func labelDimensionsMM(identifier string) (width, length int) {
	id := strings.TrimSuffix(identifier, "red")
	if strings.HasPrefix(id, "d") {
		if v, err := strconv.Atoi(id[1:]); err == nil {
			return v, v
		}
		return 0, 0
	}
	if w, l, ok := strings.Cut(id, "x"); ok {
		wv, werr := strconv.Atoi(w)
		lv, lerr := strconv.Atoi(l)
		if werr == nil && lerr == nil {
			return wv, lv
		}
		return 0, 0
	}
	if v, err := strconv.Atoi(id); err == nil {
		return v, 0
	}
	return 0, 0
}
