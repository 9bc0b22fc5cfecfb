package mapeditor

import "math"

const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// ClampZoom keeps zoom strictly positive so ToWorld never divides by zero.
// Non-finite input resets to 1.
func ClampZoom(zoom float64) float64 {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return 1
	}
	return math.Max(MinZoom, math.Min(MaxZoom, zoom))
}

// Viewport is the affine zoom/pan transform between screen pixels and world units.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

func (v Viewport) ToScreen(worldX, worldY float64) (float64, float64) {
	zoom := ClampZoom(v.Zoom)
	return (worldX - v.PanX) * zoom, (worldY - v.PanY) * zoom
}

func (v Viewport) ToWorld(screenX, screenY float64) (float64, float64) {
	zoom := ClampZoom(v.Zoom)
	return screenX/zoom + v.PanX, screenY/zoom + v.PanY
}

// ZoomAt returns the viewport after scaling zoom by factor while keeping the
// world point under (screenX, screenY) fixed on screen.
func (v Viewport) ZoomAt(factor, screenX, screenY float64) Viewport {
	worldX, worldY := v.ToWorld(screenX, screenY)
	zoom := ClampZoom(ClampZoom(v.Zoom) * factor)
	return Viewport{
		Zoom: zoom,
		PanX: worldX - screenX/zoom,
		PanY: worldY - screenY/zoom,
	}
}
