package xpspage

import (
	"image"

	"github.com/benoitkugler/okxps/xpspath"
	"golang.org/x/image/math/fixed"
)

// Given a parsed page, implements how to draw it on screen.
// This requires a driver implementing the actual draw operations,
// such as a rasterizer to output images.

// Drawer accumulates one path and paints it. It extends the
// basic adder with color and paint operations; transformation
// matrices are already applied to the points before they reach
// the Drawer.
type Drawer interface {
	xpspath.Adder

	// Clear must reset the internal state (used before starting a new path painting)
	Clear()

	// SetColor sets the brush for the current path
	SetColor(b Brush, opacity float64)

	// Draw fills or strokes the accumulated path using the current settings
	// depending on the drawing mode
	Draw()
}

// Filler fills the inside of paths.
type Filler interface {
	Drawer

	// Decide to use or not the NonZeroWinding rule for the current path
	SetWinding(useNonZeroWinding bool)
}

// Stroker strokes the outline of paths.
type Stroker interface {
	Drawer

	// Parametrize the stroking style for the current path
	SetStrokeOptions(options StrokeOptions)
}

// Driver is the canvas collaborator of a page render. One driver
// instance backs exactly one page raster.
type Driver interface {
	// SetupDrawers returns the backend painters, and
	// will be called at the beginning of every path.
	// If the `willXXX` boolean is false, the returned drawer should be nil
	// to avoid useless operations.
	// When both booleans are true, one can assume that the exact same draw operations
	// will be performed on the Filler first and then on the Stroker.
	SetupDrawers(willFill, willStroke bool) (Filler, Stroker)

	// SetClip restricts the following paint operations to `rect`,
	// given in device coordinates. The zero rectangle removes
	// the restriction.
	SetClip(rect image.Rectangle)

	// DrawText paints one glyph run.
	DrawText(run TextRun)

	// Image returns the raster the driver paints to.
	Image() *image.RGBA
}

// FontHandle identifies a font registered with a Fonter.
type FontHandle int

// FallbackFont is the handle of the substitution face used when
// a font part cannot be loaded.
const FallbackFont FontHandle = -1

// Fonter is the font collaborator: it stores font files and
// makes them addressable by handle. Drivers supporting text
// implement it alongside Driver.
type Fonter interface {
	// Register parses and stores a font file, returning its handle.
	Register(data []byte) (FontHandle, error)
}

// TextRun carries one glyph-run paint call.
type TextRun struct {
	Font             FontHandle
	FontSize         float64 // em size, in page units
	OriginX, OriginY float64 // baseline start, in page units
	Text             string
	Brush            Brush
	Opacity          float64
	Transform        xpspath.Matrix2D
}

// DashOptions describes the dash pattern of a stroke.
type DashOptions struct {
	Dash       []float64 // values for the dash pattern (nil or an empty slice for no dashes)
	DashOffset float64   // starting offset into the dash array
}

// JoinMode type to specify how segments join.
type JoinMode uint8

const (
	Miter JoinMode = iota
	Bevel
	Round
)

func (s JoinMode) String() string {
	switch s {
	case Miter:
		return "Miter"
	case Bevel:
		return "Bevel"
	case Round:
		return "Round"
	default:
		return "<unknown JoinMode>"
	}
}

// CapMode defines how to draw caps on the ends of lines
type CapMode uint8

const (
	FlatCap CapMode = iota // default value
	SquareCap
	RoundCap
	TriangleCap
)

func (c CapMode) String() string {
	switch c {
	case FlatCap:
		return "FlatCap"
	case SquareCap:
		return "SquareCap"
	case RoundCap:
		return "RoundCap"
	case TriangleCap:
		return "TriangleCap"
	default:
		return "<unknown CapMode>"
	}
}

// JoinOptions groups the settings of stroke joins and caps.
type JoinOptions struct {
	MiterLimit   fixed.Int26_6 // the miter cutoff value for the Miter join mode
	LineJoin     JoinMode
	LeadLineCap  CapMode // start of the stroke
	TrailLineCap CapMode // end of the stroke
}

// StrokeOptions groups all the settings of a stroke paint.
type StrokeOptions struct {
	LineWidth fixed.Int26_6 // width of the line
	Join      JoinOptions
	Dash      DashOptions
}
