package xpsraster

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/benoitkugler/okxps/xpspage"
	"github.com/benoitkugler/okxps/xpspath"
	"github.com/stretchr/testify/require"
)

type mapArchive map[string][]byte

func (a mapArchive) ReadPart(p string) ([]byte, error) {
	if d, ok := a[strings.TrimPrefix(p, "/")]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", xpspage.ErrPartNotFound, p)
}

func (a mapArchive) Parts() []string {
	var out []string
	for p := range a {
		out = append(out, p)
	}
	return out
}

func renderMarkup(t *testing.T, markup string) *image.RGBA {
	t.Helper()
	page := xpspage.NewPage(mapArchive{"page.fpage": []byte(markup)}, "page.fpage",
		xpspage.PageOptions{NewDriver: NewDriver, ErrorMode: xpspage.WarnErrorMode})
	img, err := page.Render()
	require.NoError(t, err)
	return img
}

func TestFillSquare(t *testing.T) {
	img := renderMarkup(t, `<FixedPage Width="40" Height="40">
		<Path Fill="#FF0000" Data="M 10,10 L 30,10 L 30,30 L 10,30 Z"/>
	</FixedPage>`)
	require.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())

	r, g, b, a := img.At(20, 20).RGBA()
	require.Greater(t, r, uint32(0xf000))
	require.Zero(t, g)
	require.Zero(t, b)
	require.Greater(t, a, uint32(0xf000))

	// outside the square stays untouched
	_, _, _, a = img.At(5, 5).RGBA()
	require.Zero(t, a)
}

func TestStrokeLine(t *testing.T) {
	img := renderMarkup(t, `<FixedPage Width="40" Height="40">
		<Path Stroke="#000000" StrokeThickness="4" Data="M 5,20 L 35,20"/>
	</FixedPage>`)

	_, _, _, a := img.At(20, 20).RGBA()
	require.Greater(t, a, uint32(0xf000))
	_, _, _, a = img.At(20, 5).RGBA()
	require.Zero(t, a)
}

func TestClipRestrictsPainting(t *testing.T) {
	img := renderMarkup(t, `<FixedPage Width="40" Height="40">
		<Canvas Clip="M 0,0 L 20,0 L 20,40 L 0,40 Z">
			<Path Fill="#0000FF" Data="M 0,0 L 40,0 L 40,40 L 0,40 Z"/>
		</Canvas>
	</FixedPage>`)

	_, _, _, a := img.At(10, 20).RGBA()
	require.Greater(t, a, uint32(0xf000))
	// the right half is clipped out
	_, _, _, a = img.At(30, 20).RGBA()
	require.Zero(t, a)
}

func TestGlyphsPaintPixels(t *testing.T) {
	// no font part: the run falls back to the bundled face
	img := renderMarkup(t, `<FixedPage Width="100" Height="40">
		<Glyphs FontUri="missing.ttf" FontRenderingEmSize="20" OriginX="5" OriginY="30"
			UnicodeString="Hg" Fill="#000000"/>
	</FixedPage>`)

	painted := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				painted++
			}
		}
	}
	require.Greater(t, painted, 10)
}

func TestImageColorFuncTiling(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	src.Set(1, 0, color.NRGBA{B: 0xff, A: 0xff})

	brush := xpspage.ImageBrush{
		Image:     src,
		Transform: xpspath.Identity,
		TileModes: xpspage.TileFlipX,
		Opacity:   1,
	}
	sample := imageColorFunc(brush, 1)

	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}
	require.Equal(t, red, sample(0, 0))
	require.Equal(t, blue, sample(1, 0))
	// mirrored repetition
	require.Equal(t, blue, sample(2, 0))
	require.Equal(t, red, sample(3, 0))
	require.Equal(t, red, sample(4, 0))

	brush.TileModes = xpspage.TileNone
	sample = imageColorFunc(brush, 1)
	require.Equal(t, color.NRGBA{}, sample(2, 0))
}

func TestFallbackFontIsUsable(t *testing.T) {
	rd := NewRenderer(10, 10)
	face, err := rd.fonts.face(xpspage.FallbackFont, 12)
	require.NoError(t, err)
	require.NotNil(t, face)
}
