// Implements a raster backend to render XPS pages,
// by wrapping rasterx.
package xpsraster

import (
	"image"
	"image/color"
	"math"

	"github.com/benoitkugler/okxps/xpspage"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

var (
	_ xpspage.Driver = (*Renderer)(nil) // assert interface conformance
	_ xpspage.Fonter = (*Renderer)(nil)
)

// Renderer rasterizes page content into an RGBA image.
// One renderer backs exactly one page raster.
type Renderer struct {
	img  *image.RGBA
	clip image.Rectangle

	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instances

	fonts fontStore
}

// NewRenderer returns a renderer painting into a fresh
// width x height image.
func NewRenderer(width, height int) *Renderer {
	rd := &Renderer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	rd.clip = rd.img.Bounds()
	rd.rebuild()
	return rd
}

// NewDriver adapts NewRenderer to the signature expected by the
// page options.
func NewDriver(width, height int) xpspage.Driver { return NewRenderer(width, height) }

// rebuild recreates the scanners with the current clip bounds.
// The scanners draw the whole bounds of their destination, so
// the clip is enforced by handing them a sub image.
func (rd *Renderer) rebuild() {
	b := rd.img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := rd.img.SubImage(rd.clip).(*image.RGBA)
	rd.filler = rasterx.NewFiller(w, h, rasterx.NewScannerGV(w, h, dst, rd.clip))
	rd.dasher = rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, dst, rd.clip))
}

// Image returns the raster the renderer paints to.
func (rd *Renderer) Image() *image.RGBA { return rd.img }

// SetClip restricts the following paints to rect, in device
// coordinates. The zero rectangle removes the restriction.
func (rd *Renderer) SetClip(rect image.Rectangle) {
	if rect == (image.Rectangle{}) {
		rect = rd.img.Bounds()
	} else {
		rect = rect.Intersect(rd.img.Bounds())
	}
	if rect == rd.clip {
		return
	}
	rd.clip = rect
	rd.rebuild()
}

// SetupDrawers returns the painters over the shared scanners.
func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (xpspage.Filler, xpspage.Stroker) {
	var f xpspage.Filler
	var s xpspage.Stroker
	if willFill {
		f = fillDrawer{rd}
	}
	if willStroke {
		s = strokeDrawer{rd}
	}
	return f, s
}

// fillDrawer paints the inside of paths with the filler.
type fillDrawer struct{ rd *Renderer }

func (d fillDrawer) Clear()                          { d.rd.filler.Clear() }
func (d fillDrawer) Start(a fixed.Point26_6)         { d.rd.filler.Start(a) }
func (d fillDrawer) Line(b fixed.Point26_6)          { d.rd.filler.Line(b) }
func (d fillDrawer) QuadBezier(b, c fixed.Point26_6) { d.rd.filler.QuadBezier(b, c) }
func (d fillDrawer) CubeBezier(b, c, e fixed.Point26_6) {
	d.rd.filler.CubeBezier(b, c, e)
}
func (d fillDrawer) Stop(closeLoop bool)     { d.rd.filler.Stop(closeLoop) }
func (d fillDrawer) SetWinding(nonZero bool) { d.rd.filler.SetWinding(nonZero) }
func (d fillDrawer) Draw()                   { d.rd.filler.Draw() }

func (d fillDrawer) SetColor(b xpspage.Brush, opacity float64) {
	setColorFromBrush(b, opacity, d.rd.filler.Scanner)
}

// strokeDrawer paints the outline of paths with the dasher.
type strokeDrawer struct{ rd *Renderer }

func (d strokeDrawer) Clear()                          { d.rd.dasher.Clear() }
func (d strokeDrawer) Start(a fixed.Point26_6)         { d.rd.dasher.Start(a) }
func (d strokeDrawer) Line(b fixed.Point26_6)          { d.rd.dasher.Line(b) }
func (d strokeDrawer) QuadBezier(b, c fixed.Point26_6) { d.rd.dasher.QuadBezier(b, c) }
func (d strokeDrawer) CubeBezier(b, c, e fixed.Point26_6) {
	d.rd.dasher.CubeBezier(b, c, e)
}
func (d strokeDrawer) Stop(closeLoop bool) { d.rd.dasher.Stop(closeLoop) }
func (d strokeDrawer) Draw()               { d.rd.dasher.Draw() }

func (d strokeDrawer) SetColor(b xpspage.Brush, opacity float64) {
	setColorFromBrush(b, opacity, d.rd.dasher.Scanner)
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		xpspage.Miter: rasterx.Miter,
		xpspage.Bevel: rasterx.Bevel,
		xpspage.Round: rasterx.Round,
	}

	capToFunc = [...]rasterx.CapFunc{
		xpspage.FlatCap:     rasterx.ButtCap,
		xpspage.SquareCap:   rasterx.SquareCap,
		xpspage.RoundCap:    rasterx.RoundCap,
		xpspage.TriangleCap: rasterx.CubicCap,
	}
)

func (d strokeDrawer) SetStrokeOptions(options xpspage.StrokeOptions) {
	d.rd.dasher.SetStroke(
		options.LineWidth, options.Join.MiterLimit,
		capToFunc[options.Join.LeadLineCap], capToFunc[options.Join.TrailLineCap],
		rasterx.FlatGap, joinToJoin[options.Join.LineJoin],
		options.Dash.Dash, options.Dash.DashOffset,
	)
}

// setColorFromBrush resolves the brush to a scanner color source.
func setColorFromBrush(b xpspage.Brush, opacity float64, scanner rasterx.Scanner) {
	switch b := b.(type) {
	case xpspage.SolidBrush:
		scanner.SetColor(rasterx.ApplyOpacity(b.Color, opacity))
	case xpspage.ImageBrush:
		scanner.SetColor(rasterx.ColorFunc(imageColorFunc(b, opacity)))
	default:
		// unresolved reference, paints nothing
		scanner.SetColor(color.NRGBA{})
	}
}

// imageColorFunc samples the pre-scaled brush image at device
// coordinates, through the inverse brush transform and the
// tile mode.
func imageColorFunc(b xpspage.ImageBrush, opacity float64) func(x, y int) color.Color {
	inv, invertible := b.Transform.Invert()
	op := opacity * b.Opacity
	bounds := b.Image.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	return func(x, y int) color.Color {
		if !invertible || w == 0 || h == 0 {
			return color.NRGBA{}
		}
		fx, fy := inv.Apply(float64(x)+0.5, float64(y)+0.5)
		ix := int(math.Floor(fx - b.Viewport[0]))
		iy := int(math.Floor(fy - b.Viewport[1]))
		switch b.TileModes {
		case xpspage.Tile:
			ix, iy = mod(ix, w), mod(iy, h)
		case xpspage.TileFlipX:
			ix, iy = flip(ix, w), mod(iy, h)
		case xpspage.TileFlipY:
			ix, iy = mod(ix, w), flip(iy, h)
		case xpspage.TileFlipXY:
			ix, iy = flip(ix, w), flip(iy, h)
		default: // TileNone
			if ix < 0 || iy < 0 || ix >= w || iy >= h {
				return color.NRGBA{}
			}
		}
		return rasterx.ApplyOpacity(b.Image.At(bounds.Min.X+ix, bounds.Min.Y+iy), op)
	}
}

func mod(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// flip folds i into [0, n) with mirror repetition.
func flip(i, n int) int {
	i = mod(i, 2*n)
	if i >= n {
		i = 2*n - 1 - i
	}
	return i
}
