package xpspath

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Matrix2D is a 2x3 affine transform, mapping the point (x, y)
// to (A*x + C*y + E, B*x + D*y + F). In the attribute form
// "m11,m12,m21,m22,dx,dy" the six numbers are A, B, C, D, E, F
// in that order.
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity transform.
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Mult returns a times b, so that applying the result is the
// same as applying b first, then a.
func (a Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Translate returns a translated copy of the matrix.
func (a Matrix2D) Translate(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, 0, 1, x, y})
}

// Scale returns a scaled copy of the matrix.
func (a Matrix2D) Scale(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{x, 0, 0, y, 0, 0})
}

// Rotate returns a copy of the matrix rotated by `angle` radians.
func (a Matrix2D) Rotate(angle float64) Matrix2D {
	sin, cos := math.Sin(angle), math.Cos(angle)
	return a.Mult(Matrix2D{cos, sin, -sin, cos, 0, 0})
}

// Invert returns the inverse transform, and false when the
// matrix is singular.
func (a Matrix2D) Invert() (Matrix2D, bool) {
	det := a.A*a.D - a.B*a.C
	if det == 0 {
		return Identity, false
	}
	return Matrix2D{
		A: a.D / det,
		B: -a.B / det,
		C: -a.C / det,
		D: a.A / det,
		E: (a.C*a.F - a.D*a.E) / det,
		F: (a.B*a.E - a.A*a.F) / det,
	}, true
}

// Apply transforms the point (x, y).
func (a Matrix2D) Apply(x, y float64) (float64, float64) {
	return a.A*x + a.C*y + a.E, a.B*x + a.D*y + a.F
}

func (a Matrix2D) transformScalar(x, y fixed.Int26_6) fixed.Point26_6 {
	xf, yf := a.Apply(float64(x)/64, float64(y)/64)
	return toFixedP(xf, yf)
}

func (a Matrix2D) trMove(op MoveTo) fixed.Point26_6 {
	return a.transformScalar(op.X, op.Y)
}

func (a Matrix2D) trLine(op LineTo) fixed.Point26_6 {
	return a.transformScalar(op.X, op.Y)
}

func (a Matrix2D) trQuad(op QuadTo) (fixed.Point26_6, fixed.Point26_6) {
	return a.transformScalar(op[0].X, op[0].Y), a.transformScalar(op[1].X, op[1].Y)
}

func (a Matrix2D) trCubic(op CubicTo) (fixed.Point26_6, fixed.Point26_6, fixed.Point26_6) {
	return a.transformScalar(op[0].X, op[0].Y), a.transformScalar(op[1].X, op[1].Y),
		a.transformScalar(op[2].X, op[2].Y)
}
