package mapeditor

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestViewportRoundTrip(t *testing.T) {
	viewports := []Viewport{
		{Zoom: 1},
		{Zoom: 0.1, PanX: -250, PanY: 40},
		{Zoom: 2.5, PanX: 13.75, PanY: -99},
		{Zoom: 5, PanX: 1e4, PanY: 1e4},
	}
	points := [][2]float64{{0, 0}, {100, 100}, {-37.5, 812.25}, {1e5, -1e5}}

	for _, v := range viewports {
		for _, p := range points {
			sx, sy := v.ToScreen(p[0], p[1])
			wx, wy := v.ToWorld(sx, sy)
			if !almostEqual(wx, p[0]) || !almostEqual(wy, p[1]) {
				t.Fatalf("viewport %+v: round trip of %v gave (%v, %v)", v, p, wx, wy)
			}
		}
	}
}

func TestViewportKnownValues(t *testing.T) {
	v := Viewport{Zoom: 2, PanX: 10, PanY: 20}

	sx, sy := v.ToScreen(60, 70)
	if sx != 100 || sy != 100 {
		t.Fatalf("ToScreen(60, 70) = (%v, %v), want (100, 100)", sx, sy)
	}

	wx, wy := v.ToWorld(100, 100)
	if wx != 60 || wy != 70 {
		t.Fatalf("ToWorld(100, 100) = (%v, %v), want (60, 70)", wx, wy)
	}
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0, MinZoom},
		{-3, MinZoom},
		{0.05, MinZoom},
		{7, MaxZoom},
		{math.NaN(), 1},
		{math.Inf(1), 1},
	}

	for _, tt := range tests {
		if got := ClampZoom(tt.in); got != tt.want {
			t.Fatalf("ClampZoom(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	v := Viewport{Zoom: 1, PanX: 30, PanY: -15}
	wx, wy := v.ToWorld(400, 300)

	zoomed := v.ZoomAt(1.5, 400, 300)
	if zoomed.Zoom != 1.5 {
		t.Fatalf("zoom = %v, want 1.5", zoomed.Zoom)
	}

	ax, ay := zoomed.ToWorld(400, 300)
	if !almostEqual(ax, wx) || !almostEqual(ay, wy) {
		t.Fatalf("anchor moved from (%v, %v) to (%v, %v)", wx, wy, ax, ay)
	}

	capped := v.ZoomAt(100, 0, 0)
	if capped.Zoom != MaxZoom {
		t.Fatalf("zoom = %v, want clamp to %v", capped.Zoom, MaxZoom)
	}
}
