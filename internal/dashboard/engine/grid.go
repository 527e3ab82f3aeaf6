package engine

import "math"

// ============================================================
// Grid Constants
// ============================================================

const (
	GridSize      = 10
	MinWidth      = 200
	MinHeight     = 150
	DefaultWidth  = 300
	DefaultHeight = 250
)

// Grid описывает шаг сетки и ограничения размеров виджетов (в пикселях).
type Grid struct {
	Size          int `toml:"size"`
	MinWidth      int `toml:"min_width"`
	MinHeight     int `toml:"min_height"`
	DefaultWidth  int `toml:"default_width"`
	DefaultHeight int `toml:"default_height"`
}

func DefaultGrid() Grid {
	return Grid{
		Size:          GridSize,
		MinWidth:      MinWidth,
		MinHeight:     MinHeight,
		DefaultWidth:  DefaultWidth,
		DefaultHeight: DefaultHeight,
	}
}

// Normalize подставляет значения по умолчанию вместо нулевых и отрицательных полей.
func (g Grid) Normalize() Grid {
	d := DefaultGrid()
	if g.Size <= 0 {
		g.Size = d.Size
	}
	if g.MinWidth <= 0 {
		g.MinWidth = d.MinWidth
	}
	if g.MinHeight <= 0 {
		g.MinHeight = d.MinHeight
	}
	if g.DefaultWidth <= 0 {
		g.DefaultWidth = d.DefaultWidth
	}
	if g.DefaultHeight <= 0 {
		g.DefaultHeight = d.DefaultHeight
	}
	return g
}

// ============================================================
// Snapping & Clamping
// ============================================================

// Snap привязывает значение к ближайшему кратному шагу сетки.
// Половина округляется от нуля (math.Round): 5 -> 10, -5 -> -10.
func (g Grid) Snap(v float64) int {
	size := g.step()
	return int(math.Round(v/float64(size))) * size
}

// ToUnits переводит пиксели в единицы сетки с тем же правилом округления, что и Snap.
func (g Grid) ToUnits(px int) int {
	return g.Snap(float64(px)) / g.step()
}

// ToPixels переводит единицы сетки в пиксели.
func (g Grid) ToPixels(units int) int {
	return units * g.step()
}

func (g Grid) step() int {
	if g.Size <= 0 {
		return GridSize
	}
	return g.Size
}

func ClampMin(v, minimum int) int {
	return max(minimum, v)
}
