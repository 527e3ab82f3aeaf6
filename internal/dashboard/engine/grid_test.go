package engine

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestSnap(t *testing.T) {
	g := DefaultGrid()

	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"zero", 0, 0},
		{"rounds down", 14, 10},
		{"rounds up", 15, 20},
		{"half away from zero", 5, 10},
		{"negative half away from zero", -5, -10},
		{"negative rounds toward zero", -4, 0},
		{"exact multiple", 320, 320},
		{"fractional", 7.4, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, g.Snap(tt.in), tt.want)
		})
	}
}

func TestSnapIdempotent(t *testing.T) {
	g := DefaultGrid()
	for v := -1000.0; v <= 1000.0; v += 0.5 {
		once := g.Snap(v)
		assert.Equal(t, g.Snap(float64(once)), once, "value %v", v)
	}
}

func TestClampMin(t *testing.T) {
	assert.Equal(t, ClampMin(50, 200), 200)
	assert.Equal(t, ClampMin(250, 200), 250)
	assert.Equal(t, ClampMin(-10, 0), 0)
}

func TestUnitsRoundTrip(t *testing.T) {
	g := DefaultGrid()
	for units := 0; units < 100; units++ {
		assert.Equal(t, g.ToUnits(g.ToPixels(units)), units)
	}
	assert.Equal(t, g.ToUnits(14), 1)
	assert.Equal(t, g.ToUnits(15), 2)
}

func TestGridNormalize(t *testing.T) {
	g := Grid{Size: 20}.Normalize()
	assert.Equal(t, g.Size, 20)
	assert.Equal(t, g.MinWidth, MinWidth)
	assert.Equal(t, g.DefaultHeight, DefaultHeight)

	assert.Equal(t, Grid{}.Snap(14), 10)
}
