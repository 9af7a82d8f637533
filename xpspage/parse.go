// Implements the page content interpreter of XPS documents:
// a streaming pass over the page markup building a render tree,
// resolving resources through scoped dictionaries and issuing
// paint calls to a driver.
package xpspage

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/okxps/xpspath"
	"golang.org/x/image/math/fixed"
	"golang.org/x/net/html/charset"

	// formats an image brush may reference
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// frame is the graphic state inherited by one open element:
// the accumulated transform, the clip region in device space
// and the accumulated opacity.
type frame struct {
	mat     xpspath.Matrix2D
	clip    image.Rectangle
	clipSet bool
	opacity float64
}

// pageHandler drives one render: it owns the node stack, the
// frame stack mirroring element nesting, and the resource scopes.
type pageHandler struct {
	page   *Page
	driver Driver
	fonter Fonter // nil when the driver cannot register fonts

	errorMode ErrorMode

	stack  []*RenderNode
	frames []frame
	scopes resourceStack

	sawRoot bool
}

func (h *pageHandler) run(r io.Reader) error {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	for {
		t, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if !h.sawRoot {
				return fmt.Errorf("invalid page markup: %s", err)
			}
			// mid-stream error: keep what was already painted
			return h.errorMode.handleError(fmt.Errorf("truncated page markup: %s", err))
		}
		switch t := t.(type) {
		case xml.StartElement:
			if err := h.startElement(t); err != nil {
				return err
			}
		case xml.EndElement:
			if err := h.endElement(); err != nil {
				return err
			}
		}
	}
}

// startElement pushes the node and its graphic state. It never
// fails hard: malformed eager attributes degrade to the
// inherited state.
func (h *pageHandler) startElement(se xml.StartElement) error {
	h.sawRoot = true
	n := newRenderNode(se)

	fr := frame{mat: xpspath.Identity, opacity: 1}
	if len(h.frames) != 0 {
		fr = h.frames[len(h.frames)-1]
	}
	if v := n.attr("RenderTransform"); v != "" {
		m, err := h.resolveTransform(v)
		if err != nil {
			if e := h.errorMode.handleError(err); e != nil {
				return e
			}
		} else {
			fr.mat = fr.mat.Mult(m)
		}
	}
	if v := n.attr("Opacity"); v != "" {
		if op, err := strconv.ParseFloat(v, 64); err == nil && op >= 0 && op <= 1 {
			fr.opacity *= op
		}
	}
	if v := n.attr("Clip"); v != "" {
		rect, err := h.clipBounds(v, fr.mat)
		if err != nil {
			if e := h.errorMode.handleError(err); e != nil {
				return e
			}
		} else if fr.clipSet {
			fr.clip = fr.clip.Intersect(rect)
		} else {
			fr.clip, fr.clipSet = rect, true
		}
	}

	switch n.Name {
	case "FixedPage", "Canvas":
		h.scopes.push()
	}

	h.stack = append(h.stack, n)
	h.frames = append(h.frames, fr)
	return nil
}

// endElement pops the node, dispatches by element kind and
// attaches the finished node to its parent.
func (h *pageHandler) endElement() error {
	last := len(h.stack) - 1
	n, fr := h.stack[last], h.frames[last]
	h.stack, h.frames = h.stack[:last], h.frames[:last]

	var err error
	if fn, ok := elementFuncs[n.Name]; ok {
		err = fn(h, n, fr)
	} else if strings.Contains(n.Name, ".") {
		h.propagateProperty(n)
	} else {
		// recorded generically, no paint side effect
		err = h.errorMode.handleError(fmt.Errorf("unsupported element %s", n.Name))
	}

	if len(h.stack) != 0 {
		parent := h.stack[len(h.stack)-1]
		parent.Children = append(parent.Children, n)
	}
	return err
}

// propagateProperty hands the payload of a property element
// (a name of the form Parent.Property) to the element it
// qualifies. Property elements precede their siblings, so a
// render transform folded into the parent frame is established
// before any descendant paints.
func (h *pageHandler) propagateProperty(n *RenderNode) {
	if len(h.stack) == 0 {
		return
	}
	parent := h.stack[len(h.stack)-1]
	switch n.Name[strings.LastIndexByte(n.Name, '.')+1:] {
	case "RenderTransform":
		if m := n.payloadTransform(); m != nil {
			top := &h.frames[len(h.frames)-1]
			top.mat = top.mat.Mult(*m)
		}
	case "Transform":
		parent.Transform = n.payloadTransform()
	case "Fill":
		parent.Fill = n.payloadBrush()
	case "Stroke":
		parent.Stroke = n.payloadBrush()
	case "Data":
		for _, c := range n.Children {
			if c.Geometry != "" {
				parent.Geometry = c.Geometry
				break
			}
		}
	case "Resources":
		// dictionary entries were registered when the dictionary ended
	}
}

type elementFunc func(h *pageHandler, n *RenderNode, fr frame) error

var elementFuncs = map[string]elementFunc{
	"FixedPage":           scopeF,
	"Canvas":              scopeF,
	"Path":                pathF,
	"Glyphs":              glyphsF,
	"MatrixTransform":     matrixTransformF,
	"SolidColorBrush":     solidColorBrushF,
	"ImageBrush":          imageBrushF,
	"LinearGradientBrush": gradientBrushF,
	"RadialGradientBrush": gradientBrushF,
	"GradientStop":        nopF,
	"GradientStops":       nopF,
	"PathGeometry":        pathGeometryF,
	"ResourceDictionary":  resourceDictionaryF,
}

func nopF(*pageHandler, *RenderNode, frame) error { return nil }

// scopeF closes the resource scope opened by a page or canvas.
func scopeF(h *pageHandler, _ *RenderNode, _ frame) error {
	h.scopes.pop()
	return nil
}

func matrixTransformF(h *pageHandler, n *RenderNode, _ frame) error {
	m, err := parseMatrix(n.attr("Matrix"))
	if err != nil {
		return h.errorMode.handleError(err)
	}
	n.Transform = &m
	return nil
}

func solidColorBrushF(h *pageHandler, n *RenderNode, _ frame) error {
	c, err := parseColor(n.attr("Color"))
	if err != nil {
		n.BrushPayload = transparent
		return h.errorMode.handleError(err)
	}
	if v := n.attr("Opacity"); v != "" {
		if op, errOp := strconv.ParseFloat(v, 64); errOp == nil && op >= 0 && op <= 1 {
			c.A = uint8(op*float64(c.A) + 0.5)
		}
	}
	n.BrushPayload = SolidBrush{Color: c}
	return nil
}

// gradientBrushF renders a gradient as its first stop color.
func gradientBrushF(h *pageHandler, n *RenderNode, _ frame) error {
	n.BrushPayload = transparent
	stop := n.firstChild("GradientStop")
	for _, c := range n.Children {
		if stop != nil {
			break
		}
		// stops usually come wrapped in a property element
		if c.Name == "GradientStops" || strings.HasSuffix(c.Name, ".GradientStops") {
			stop = c.firstChild("GradientStop")
		}
	}
	if stop == nil {
		return h.errorMode.handleError(errors.New("gradient brush with no stops"))
	}
	c, err := parseColor(stop.attr("Color"))
	if err != nil {
		return h.errorMode.handleError(err)
	}
	n.BrushPayload = SolidBrush{Color: c}
	return h.errorMode.handleError(fmt.Errorf("%s rendered as first stop color", n.Name))
}

func imageBrushF(h *pageHandler, n *RenderNode, _ frame) error {
	n.BrushPayload = transparent
	src := n.attr("ImageSource")
	if strings.HasPrefix(src, "{") {
		return h.errorMode.handleError(fmt.Errorf("unsupported image source %q", src))
	}
	data, err := h.page.archive.ReadPart(h.page.resolve(src))
	if err != nil {
		return h.errorMode.handleError(fmt.Errorf("image brush: %s", err))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return h.errorMode.handleError(fmt.Errorf("image brush %s: %s", src, err))
	}

	viewbox, err1 := getFloats(n.attr("Viewbox"))
	viewport, err2 := getFloats(n.attr("Viewport"))
	if err1 != nil || err2 != nil || len(viewbox) != 4 || len(viewport) != 4 ||
		viewport[2] <= 0 || viewport[3] <= 0 {
		return h.errorMode.handleError(fmt.Errorf("image brush %s: invalid viewbox or viewport", src))
	}

	mat := xpspath.Identity
	if n.Transform != nil { // set by the Transform property element
		mat = *n.Transform
	} else if v := n.attr("Transform"); v != "" {
		if m, errT := h.resolveTransform(v); errT == nil {
			mat = m
		}
	}
	opacity := 1.0
	if v := n.attr("Opacity"); v != "" {
		if op, errOp := strconv.ParseFloat(v, 64); errOp == nil && op >= 0 && op <= 1 {
			opacity = op
		}
	}

	// pre-scale the viewbox region of the image to the viewport
	// size, so that painting reduces to tiled sampling
	w, h_ := int(viewport[2]+0.5), int(viewport[3]+0.5)
	if w < 1 {
		w = 1
	}
	if h_ < 1 {
		h_ = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h_))
	srcRect := image.Rect(int(viewbox[0]), int(viewbox[1]),
		int(viewbox[0]+viewbox[2]+0.5), int(viewbox[1]+viewbox[3]+0.5))
	if srcRect.Empty() {
		srcRect = img.Bounds()
	}
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, srcRect, xdraw.Src, nil)

	n.BrushPayload = ImageBrush{
		Image:     scaled,
		Viewport:  [4]float64{viewport[0], viewport[1], viewport[2], viewport[3]},
		Transform: mat,
		TileModes: parseTileMode(n.attr("TileMode")),
		Opacity:   opacity,
	}
	return nil
}

func pathGeometryF(h *pageHandler, n *RenderNode, _ frame) error {
	n.Geometry = n.attr("Figures")
	if n.attr("FillRule") == "NonZero" && n.Geometry != "" {
		// reuse the fill rule command of the abbreviated syntax
		n.Geometry = "F 1 " + n.Geometry
	}
	return nil
}

// resourceDictionaryF harvests the keyed children into the
// innermost scope, making them visible to the siblings that
// follow the enclosing Resources property element.
func resourceDictionaryF(h *pageHandler, n *RenderNode, _ frame) error {
	if v := n.attr("Source"); v != "" {
		return h.errorMode.handleError(fmt.Errorf("remote resource dictionary %q is not supported", v))
	}
	for _, c := range n.Children {
		key := c.attr("Key")
		if key == "" {
			continue
		}
		switch {
		case c.BrushPayload != nil:
			h.scopes.define(key, resource{brush: c.BrushPayload})
		case c.Transform != nil:
			h.scopes.define(key, resource{mat: c.Transform})
		case c.Geometry != "":
			h.scopes.define(key, resource{geometry: c.Geometry})
		}
	}
	return nil
}

// pathF paints one filled and/or stroked path. Malformed
// geometry keeps its parsed prefix, unresolved brushes degrade
// to transparent.
func pathF(h *pageHandler, n *RenderNode, fr frame) error {
	if fr.clipSet && fr.clip.Empty() {
		return nil // fully clipped out
	}
	geo := n.attr("Data")
	if geo == "" {
		geo = n.Geometry
	}
	if key, ok := refKey(geo); ok {
		res, err := h.scopes.lookup(key)
		if err != nil {
			return h.errorMode.handleError(err)
		}
		geo = res.geometry
	}
	if geo == "" {
		return nil
	}
	segs, err := xpspath.Parse(geo)
	if err != nil {
		if e := h.errorMode.handleError(fmt.Errorf("path data: %s", err)); e != nil {
			return e
		}
	}
	p, rule := segs.Path()
	if len(p) == 0 {
		return nil
	}

	fill, errFill := h.resolveBrush(n.attr("Fill"), n.Fill)
	if errFill != nil {
		if e := h.errorMode.handleError(errFill); e != nil {
			return e
		}
	}
	stroke, errStroke := h.resolveBrush(n.attr("Stroke"), n.Stroke)
	if errStroke != nil {
		if e := h.errorMode.handleError(errStroke); e != nil {
			return e
		}
	}
	if fill == nil && stroke == nil {
		return nil
	}

	filler, stroker := h.driver.SetupDrawers(fill != nil, stroke != nil)
	h.driver.SetClip(clipRect(fr))
	if filler != nil {
		filler.Clear()
		filler.SetWinding(rule == xpspath.NonZero)
		p.AddTo(filler, fr.mat)
		filler.SetColor(fill, fr.opacity)
		filler.Draw()
	}
	if stroker != nil {
		stroker.Clear()
		stroker.SetStrokeOptions(strokeOptions(n, fr.mat))
		p.AddTo(stroker, fr.mat)
		stroker.SetColor(stroke, fr.opacity)
		stroker.Draw()
	}
	return nil
}

// glyphsF paints one glyph run. A missing font degrades to the
// fallback face, a missing fill makes the run invisible.
func glyphsF(h *pageHandler, n *RenderNode, fr frame) error {
	if fr.clipSet && fr.clip.Empty() {
		return nil
	}
	text := strings.TrimPrefix(n.attr("UnicodeString"), "{}")
	if text == "" {
		if n.attr("Indices") != "" {
			return h.errorMode.handleError(errors.New("glyph runs with indices only are not supported"))
		}
		return nil
	}
	size, err := strconv.ParseFloat(n.attr("FontRenderingEmSize"), 64)
	if err != nil || size <= 0 {
		return h.errorMode.handleError(fmt.Errorf("invalid glyph run em size %q", n.attr("FontRenderingEmSize")))
	}
	ox, _ := strconv.ParseFloat(n.attr("OriginX"), 64)
	oy, _ := strconv.ParseFloat(n.attr("OriginY"), 64)

	fill, errFill := h.resolveBrush(n.attr("Fill"), n.Fill)
	if errFill != nil {
		if e := h.errorMode.handleError(errFill); e != nil {
			return e
		}
	}
	if fill == nil {
		return nil
	}

	handle := FallbackFont
	if h.fonter != nil {
		var errFont error
		handle, errFont = h.page.loadFont(n.attr("FontUri"), h.fonter)
		if errFont != nil {
			handle = FallbackFont
			if e := h.errorMode.handleError(errFont); e != nil {
				return e
			}
		}
	}

	h.driver.SetClip(clipRect(fr))
	h.driver.DrawText(TextRun{
		Font:      handle,
		FontSize:  size,
		OriginX:   ox,
		OriginY:   oy,
		Text:      text,
		Brush:     fill,
		Opacity:   fr.opacity,
		Transform: fr.mat,
	})
	return nil
}

// resolveBrush turns an attribute value or a property element
// payload into a concrete brush. A failed resolution returns the
// transparent brush along with the error, so that painting can
// proceed with no visible effect.
func (h *pageHandler) resolveBrush(attrVal string, payload Brush) (Brush, error) {
	b := payload
	if b == nil {
		if attrVal == "" {
			return nil, nil
		}
		if key, ok := refKey(attrVal); ok {
			b = RefBrush{Key: key}
		} else {
			c, err := parseColor(attrVal)
			if err != nil {
				return transparent, err
			}
			b = SolidBrush{Color: c}
		}
	}
	if ref, ok := b.(RefBrush); ok {
		res, err := h.scopes.lookup(ref.Key)
		if err != nil {
			return transparent, err
		}
		if res.brush == nil {
			return transparent, fmt.Errorf("resource %q is not a brush", ref.Key)
		}
		b = res.brush
	}
	return b, nil
}

// resolveTransform reads a matrix literal or a resource reference.
func (h *pageHandler) resolveTransform(v string) (xpspath.Matrix2D, error) {
	if key, ok := refKey(v); ok {
		res, err := h.scopes.lookup(key)
		if err != nil {
			return xpspath.Identity, err
		}
		if res.mat == nil {
			return xpspath.Identity, fmt.Errorf("resource %q is not a transform", key)
		}
		return *res.mat, nil
	}
	return parseMatrix(v)
}

// strokeOptions reads the stroke attributes of a path element.
// The line width and the dash pattern, expressed in thickness
// units, are scaled by the transform.
func strokeOptions(n *RenderNode, mat xpspath.Matrix2D) StrokeOptions {
	width := 1.0
	if v := n.attr("StrokeThickness"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			width = f
		}
	}
	if scale := math.Sqrt(math.Abs(mat.A*mat.D - mat.B*mat.C)); scale > 0 {
		width *= scale
	}

	opts := StrokeOptions{
		LineWidth: fixed.Int26_6(width * 64),
		Join: JoinOptions{
			MiterLimit: fixed.Int26_6(10 * 64),
			LineJoin:   Miter,
		},
	}
	switch n.attr("StrokeLineJoin") {
	case "Bevel":
		opts.Join.LineJoin = Bevel
	case "Round":
		opts.Join.LineJoin = Round
	}
	if v := n.attr("StrokeMiterLimit"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			opts.Join.MiterLimit = fixed.Int26_6(f * 64)
		}
	}
	opts.Join.LeadLineCap = parseCap(n.attr("StrokeStartLineCap"))
	opts.Join.TrailLineCap = parseCap(n.attr("StrokeEndLineCap"))

	if v := n.attr("StrokeDashArray"); v != "" {
		if dashes, err := getFloats(v); err == nil && len(dashes) != 0 {
			for i := range dashes {
				dashes[i] *= width // dash values are in thickness units
			}
			opts.Dash.Dash = dashes
		}
	}
	if v := n.attr("StrokeDashOffset"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.Dash.DashOffset = f * width
		}
	}
	return opts
}

func parseCap(v string) CapMode {
	switch v {
	case "Round":
		return RoundCap
	case "Square":
		return SquareCap
	case "Triangle":
		return TriangleCap
	}
	return FlatCap
}

// clipRect returns the device clip of the frame, or the zero
// rectangle when unrestricted.
func clipRect(fr frame) image.Rectangle {
	if fr.clipSet {
		return fr.clip
	}
	return image.Rectangle{}
}

// boundsAdder accumulates the bounding box of the primitives it
// receives; control points are included, yielding a conservative
// box for bezier segments.
type boundsAdder struct {
	min, max struct{ x, y float64 }
	set      bool
}

func (b *boundsAdder) add(p fixed.Point26_6) {
	x, y := float64(p.X)/64, float64(p.Y)/64
	if !b.set {
		b.min.x, b.min.y, b.max.x, b.max.y = x, y, x, y
		b.set = true
		return
	}
	b.min.x = math.Min(b.min.x, x)
	b.min.y = math.Min(b.min.y, y)
	b.max.x = math.Max(b.max.x, x)
	b.max.y = math.Max(b.max.y, y)
}

func (b *boundsAdder) Start(a fixed.Point26_6) { b.add(a) }
func (b *boundsAdder) Line(a fixed.Point26_6)  { b.add(a) }
func (b *boundsAdder) QuadBezier(c, d fixed.Point26_6) {
	b.add(c)
	b.add(d)
}
func (b *boundsAdder) CubeBezier(c, d, e fixed.Point26_6) {
	b.add(c)
	b.add(d)
	b.add(e)
}
func (b *boundsAdder) Stop(bool) {}

func (b *boundsAdder) rect() image.Rectangle {
	if !b.set {
		return image.Rectangle{}
	}
	return image.Rect(int(math.Floor(b.min.x)), int(math.Floor(b.min.y)),
		int(math.Ceil(b.max.x)), int(math.Ceil(b.max.y)))
}

// clipBounds evaluates a clip geometry to its device space
// bounding box under the given transform.
func (h *pageHandler) clipBounds(v string, mat xpspath.Matrix2D) (image.Rectangle, error) {
	if key, ok := refKey(v); ok {
		res, err := h.scopes.lookup(key)
		if err != nil {
			return image.Rectangle{}, err
		}
		v = res.geometry
	}
	segs, err := xpspath.Parse(v)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("clip geometry: %s", err)
	}
	p, _ := segs.Path()
	var b boundsAdder
	p.AddTo(&b, mat)
	return b.rect(), nil
}
