package xpsraster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/benoitkugler/okxps/xpspage"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Font storage and glyph run painting. Fonts are parsed once at
// registration; faces are cached per handle and size.

type faceKey struct {
	handle xpspage.FontHandle
	size   float64
}

type fontStore struct {
	fonts    []*sfnt.Font
	fallback *sfnt.Font
	faces    map[faceKey]font.Face
}

// Register parses and stores a font file.
func (rd *Renderer) Register(data []byte) (xpspage.FontHandle, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return xpspage.FallbackFont, fmt.Errorf("unreadable font: %s", err)
	}
	rd.fonts.fonts = append(rd.fonts.fonts, f)
	return xpspage.FontHandle(len(rd.fonts.fonts) - 1), nil
}

// font resolves a handle, substituting the bundled face for the
// fallback handle or an out of range value.
func (fs *fontStore) font(h xpspage.FontHandle) *sfnt.Font {
	if h >= 0 && int(h) < len(fs.fonts) {
		return fs.fonts[h]
	}
	if fs.fallback == nil {
		fs.fallback, _ = opentype.Parse(goregular.TTF)
	}
	return fs.fallback
}

func (fs *fontStore) face(h xpspage.FontHandle, size float64) (font.Face, error) {
	key := faceKey{h, size}
	if f, ok := fs.faces[key]; ok {
		return f, nil
	}
	sf := fs.font(h)
	if sf == nil {
		return nil, fmt.Errorf("no font for handle %d", h)
	}
	face, err := opentype.NewFace(sf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72, // size is already in device pixels
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	if fs.faces == nil {
		fs.faces = map[faceKey]font.Face{}
	}
	fs.faces[key] = face
	return face, nil
}

// DrawText paints one glyph run. The face size follows the
// scale of the run transform; rotated or sheared runs keep the
// transformed baseline origin.
func (rd *Renderer) DrawText(run xpspage.TextRun) {
	scale := math.Sqrt(math.Abs(run.Transform.A*run.Transform.D - run.Transform.B*run.Transform.C))
	if scale <= 0 || run.FontSize <= 0 {
		return
	}
	face, err := rd.fonts.face(run.Font, run.FontSize*scale)
	if err != nil {
		return
	}

	src := image.NewUniform(rasterx.ApplyOpacity(brushColor(run.Brush), run.Opacity))
	ox, oy := run.Transform.Apply(run.OriginX, run.OriginY)
	drawer := font.Drawer{
		Dst:  rd.img.SubImage(rd.clip).(*image.RGBA),
		Src:  src,
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(ox * 64),
			Y: fixed.Int26_6(oy * 64),
		},
	}
	drawer.DrawString(run.Text)
}

// brushColor reduces a brush to a single color: glyph runs are
// painted with the average tone of non solid brushes.
func brushColor(b xpspage.Brush) color.NRGBA {
	switch b := b.(type) {
	case xpspage.SolidBrush:
		return b.Color
	case xpspage.ImageBrush:
		var r, g, bl, a, n uint64
		bounds := b.Image.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y += 4 {
			for x := bounds.Min.X; x < bounds.Max.X; x += 4 {
				cr, cg, cb, ca := b.Image.At(x, y).RGBA()
				r += uint64(cr)
				g += uint64(cg)
				bl += uint64(cb)
				a += uint64(ca)
				n++
			}
		}
		if n == 0 {
			return color.NRGBA{}
		}
		return color.NRGBA{
			R: uint8(r / n >> 8),
			G: uint8(g / n >> 8),
			B: uint8(bl / n >> 8),
			A: uint8(a / n >> 8),
		}
	}
	return color.NRGBA{}
}
