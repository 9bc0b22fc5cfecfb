package mapeditor

import "math"

type Grid struct {
	Size    int
	Enabled bool
}

// Snap rounds each axis to the nearest multiple of the grid size. It is the
// identity when snapping is off or the size is not positive.
func (g Grid) Snap(x, y float64) (float64, float64) {
	if !g.Enabled || g.Size <= 0 {
		return x, y
	}
	size := float64(g.Size)
	return math.Round(x/size) * size, math.Round(y/size) * size
}
