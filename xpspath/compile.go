package xpspath

// This file lowers parsed segments to compiled path operations,
// tracking the running current point and the reflected control
// points of the smooth commands.

// FillRule selects the winding rule of a filled geometry.
type FillRule uint8

const (
	EvenOdd FillRule = iota // default
	NonZero
)

// Path compiles the segments to drawing operations. The running
// current point is threaded through the commands, relative
// parameters are resolved against it, and elliptical arcs are
// lowered to cubic beziers. The fill rule is taken from the
// leading F command when present, EvenOdd otherwise.
func (ss Segments) Path() (Path, FillRule) {
	var (
		p              Path
		rule           = EvenOdd
		curX, curY     float64
		startX, startY float64
		ctlX, ctlY     float64 // last control point, for S and T reflection
		lastCmd        byte
	)
	for _, seg := range ss {
		a := seg.Args
		switch seg.Cmd {
		case 'F':
			if a[0] != 0 {
				rule = NonZero
			}
		case 'M':
			x, y := a[0], a[1]
			if seg.Rel {
				x, y = x+curX, y+curY
			}
			p.Start(toFixedP(x, y))
			curX, curY, startX, startY = x, y, x, y
		case 'L':
			x, y := a[0], a[1]
			if seg.Rel {
				x, y = x+curX, y+curY
			}
			p.Line(toFixedP(x, y))
			curX, curY = x, y
		case 'H':
			x := a[0]
			if seg.Rel {
				x += curX
			}
			p.Line(toFixedP(x, curY))
			curX = x
		case 'V':
			y := a[0]
			if seg.Rel {
				y += curY
			}
			p.Line(toFixedP(curX, y))
			curY = y
		case 'C':
			x1, y1, x2, y2, x, y := a[0], a[1], a[2], a[3], a[4], a[5]
			if seg.Rel {
				x1, y1 = x1+curX, y1+curY
				x2, y2 = x2+curX, y2+curY
				x, y = x+curX, y+curY
			}
			p.CubeBezier(toFixedP(x1, y1), toFixedP(x2, y2), toFixedP(x, y))
			ctlX, ctlY = x2, y2
			curX, curY = x, y
		case 'S':
			x2, y2, x, y := a[0], a[1], a[2], a[3]
			if seg.Rel {
				x2, y2 = x2+curX, y2+curY
				x, y = x+curX, y+curY
			}
			x1, y1 := curX, curY
			if lastCmd == 'C' || lastCmd == 'S' {
				x1, y1 = 2*curX-ctlX, 2*curY-ctlY
			}
			p.CubeBezier(toFixedP(x1, y1), toFixedP(x2, y2), toFixedP(x, y))
			ctlX, ctlY = x2, y2
			curX, curY = x, y
		case 'Q':
			x1, y1, x, y := a[0], a[1], a[2], a[3]
			if seg.Rel {
				x1, y1 = x1+curX, y1+curY
				x, y = x+curX, y+curY
			}
			p.QuadBezier(toFixedP(x1, y1), toFixedP(x, y))
			ctlX, ctlY = x1, y1
			curX, curY = x, y
		case 'T':
			x, y := a[0], a[1]
			if seg.Rel {
				x, y = x+curX, y+curY
			}
			x1, y1 := curX, curY
			if lastCmd == 'Q' || lastCmd == 'T' {
				x1, y1 = 2*curX-ctlX, 2*curY-ctlY
			}
			p.QuadBezier(toFixedP(x1, y1), toFixedP(x, y))
			ctlX, ctlY = x1, y1
			curX, curY = x, y
		case 'A':
			rx, ry, rot := a[0], a[1], a[2]
			x, y := a[5], a[6]
			if seg.Rel {
				x, y = x+curX, y+curY
			}
			if rx == 0 || ry == 0 {
				// degenerate radius, drawn as a straight line
				p.Line(toFixedP(x, y))
				curX, curY = x, y
			} else {
				curX, curY = p.addArc(rx, ry, rot, a[3] != 0, a[4] != 0, curX, curY, x, y)
			}
		case 'Z':
			p.Stop(true)
			curX, curY = startX, startY
		}
		lastCmd = seg.Cmd
	}
	return p, rule
}
