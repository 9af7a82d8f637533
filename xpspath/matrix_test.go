package xpspath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatrixApply(t *testing.T) {
	m := Matrix2D{2, 0, 0, 3, 10, 20}
	x, y := m.Apply(1, 1)
	require.Equal(t, 12.0, x)
	require.Equal(t, 23.0, y)
}

func TestMatrixComposition(t *testing.T) {
	t1 := Identity.Translate(10, 0)
	t2 := Identity.Scale(2, 2)

	// composing then applying equals applying the inner transform first
	x, y := t1.Mult(t2).Apply(3, 4)
	ix, iy := t2.Apply(3, 4)
	ix, iy = t1.Apply(ix, iy)
	require.Equal(t, ix, x)
	require.Equal(t, iy, y)
	require.Equal(t, 16.0, x)
	require.Equal(t, 8.0, y)
}

func TestMatrixRotate(t *testing.T) {
	m := Identity.Rotate(math.Pi / 2)
	x, y := m.Apply(1, 0)
	require.InDelta(t, 0, x, 1e-12)
	require.InDelta(t, 1, y, 1e-12)
}

func TestMatrixInvert(t *testing.T) {
	m := Identity.Translate(5, -3).Scale(2, 4).Rotate(0.3)
	inv, ok := m.Invert()
	require.True(t, ok)

	x, y := m.Apply(7, 11)
	x, y = inv.Apply(x, y)
	require.InDelta(t, 7, x, 1e-9)
	require.InDelta(t, 11, y, 1e-9)

	_, ok = Matrix2D{}.Invert()
	require.False(t, ok)
}
