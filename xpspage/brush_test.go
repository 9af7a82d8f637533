package xpspage

import (
	"image/color"
	"testing"

	"github.com/benoitkugler/okxps/xpspath"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		input    string
		expected color.NRGBA
	}{
		{"#FF0000", color.NRGBA{R: 0xff, A: 0xff}},
		{"#80FF0000", color.NRGBA{R: 0xff, A: 0x80}},
		{"#0f0", color.NRGBA{G: 0xff, A: 0xff}},
		{"#800f", color.NRGBA{B: 0xff, A: 0x88}},
		{" #123456 ", color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}},
		{"sc#1.0,0.0,0.0", color.NRGBA{R: 0xff, A: 0xff}},
		{"sc#0.5,0.0,1.0,0.0", color.NRGBA{B: 0xff, A: 0x80}},
		{"sc#0,2.5,0", color.NRGBA{G: 0xff, A: 0xff}}, // clamped
	} {
		c, err := parseColor(test.input)
		require.NoError(t, err, test.input)
		require.Equal(t, test.expected, c, test.input)
	}

	for _, bad := range []string{"", "red", "#12345", "#GGHHII", "sc#1.0,0.0", "sc#a,b,c"} {
		_, err := parseColor(bad)
		require.Error(t, err, bad)
	}
}

func TestRefKey(t *testing.T) {
	k, ok := refKey("{StaticResource redBrush}")
	require.True(t, ok)
	require.Equal(t, "redBrush", k)

	_, ok = refKey("#FF0000")
	require.False(t, ok)
	_, ok = refKey("{StaticResource }")
	require.False(t, ok)
}

func TestParseMatrix(t *testing.T) {
	m, err := parseMatrix("1,0,0,1,20,30")
	require.NoError(t, err)
	require.Equal(t, xpspath.Matrix2D{A: 1, D: 1, E: 20, F: 30}, m)

	_, err = parseMatrix("1,0,0,1")
	require.Error(t, err)
	_, err = parseMatrix("a,b,c,d,e,f")
	require.Error(t, err)
}
