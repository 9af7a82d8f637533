package xpspage

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/benoitkugler/okxps/xpspath"
)

// This file defines the paint sources of path and glyph fills.

// Brush is a fill or stroke paint source: a solid color, a tiled
// image, or a reference resolved through the resource dictionary.
type Brush interface {
	isBrush()
}

// SolidBrush paints a single color.
type SolidBrush struct {
	Color color.NRGBA
}

// TileMode describes how an image brush covers the area
// outside its viewport.
type TileMode uint8

const (
	TileNone TileMode = iota
	Tile
	TileFlipX
	TileFlipY
	TileFlipXY
)

// ImageBrush paints a raster image, scaled from its viewbox to
// its viewport and tiled according to the tile mode. Transform
// maps the viewport to page space.
type ImageBrush struct {
	Image     image.Image
	Viewport  [4]float64 // x, y, width, height, in brush space
	Transform xpspath.Matrix2D
	TileModes TileMode
	Opacity   float64
}

// RefBrush is an unresolved resource reference, looked up in the
// dictionary scope chain at paint time.
type RefBrush struct {
	Key string
}

func (SolidBrush) isBrush() {}
func (ImageBrush) isBrush() {}
func (RefBrush) isBrush()   {}

// transparent is the safe substitute when a brush cannot be
// resolved: painting proceeds with no visible effect.
var transparent = SolidBrush{Color: color.NRGBA{}}

var errBadColor = errors.New("unsupported color literal")

// parseColor reads a color literal: the hex forms #RGB, #ARGB,
// #RRGGBB and #AARRGGBB, or the float form sc#r,g,b / sc#a,r,g,b
// with components in [0, 1].
func parseColor(v string) (color.NRGBA, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "sc#") {
		fs, err := getFloats(v[len("sc#"):])
		if err != nil || (len(fs) != 3 && len(fs) != 4) {
			return color.NRGBA{}, fmt.Errorf("%w: %s", errBadColor, v)
		}
		c := color.NRGBA{A: 0xff}
		if len(fs) == 4 {
			c.A = scByte(fs[0])
			fs = fs[1:]
		}
		c.R, c.G, c.B = scByte(fs[0]), scByte(fs[1]), scByte(fs[2])
		return c, nil
	}
	if !strings.HasPrefix(v, "#") {
		return color.NRGBA{}, fmt.Errorf("%w: %s", errBadColor, v)
	}
	hex := v[1:]
	short := len(hex) == 3 || len(hex) == 4
	if short {
		var long []byte
		for i := 0; i < len(hex); i++ {
			long = append(long, hex[i], hex[i])
		}
		hex = string(long)
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %s", errBadColor, v)
	}
	n, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %s", errBadColor, v)
	}
	c := color.NRGBA{A: 0xff}
	if len(hex) == 8 {
		c.A = uint8(n >> 24)
	}
	c.R = uint8(n >> 16)
	c.G = uint8(n >> 8)
	c.B = uint8(n)
	return c, nil
}

// scByte maps a [0, 1] float component to a byte, clamping out
// of range values.
func scByte(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 0xff
	}
	return uint8(f*255 + 0.5)
}

// refKey extracts the key of a "{StaticResource key}" reference,
// or returns false for any other string.
func refKey(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "{StaticResource ") || !strings.HasSuffix(v, "}") {
		return "", false
	}
	key := strings.TrimSpace(v[len("{StaticResource ") : len(v)-1])
	return key, key != ""
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' '
		})
}

// getFloats parses a list of comma or space separated numbers.
func getFloats(v string) ([]float64, error) {
	chunks := splitOnCommaOrSpace(v)
	out := make([]float64, len(chunks))
	for i, c := range chunks {
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

var errParamMismatch = errors.New("parameter mismatch")

// parseMatrix reads the six number form "m11,m12,m21,m22,dx,dy".
func parseMatrix(v string) (xpspath.Matrix2D, error) {
	fs, err := getFloats(v)
	if err != nil {
		return xpspath.Identity, err
	}
	if len(fs) != 6 {
		return xpspath.Identity, fmt.Errorf("%w: expected 6 numbers in %q", errParamMismatch, v)
	}
	return xpspath.Matrix2D{A: fs[0], B: fs[1], C: fs[2], D: fs[3], E: fs[4], F: fs[5]}, nil
}

func parseTileMode(v string) TileMode {
	switch v {
	case "Tile":
		return Tile
	case "FlipX":
		return TileFlipX
	case "FlipY":
		return TileFlipY
	case "FlipXY":
		return TileFlipXY
	}
	return TileNone
}
