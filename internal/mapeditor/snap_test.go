package mapeditor

import "testing"

func TestGridSnap(t *testing.T) {
	tests := []struct {
		name   string
		grid   Grid
		x, y   float64
		wx, wy float64
	}{
		{"disabled is identity", Grid{Size: 50, Enabled: false}, 123.4, -7.2, 123.4, -7.2},
		{"rounds to nearest", Grid{Size: 50, Enabled: true}, 124, 76, 100, 100},
		{"half rounds away from zero", Grid{Size: 50, Enabled: true}, 25, -25, 50, -50},
		{"exact multiple unchanged", Grid{Size: 20, Enabled: true}, 40, 60, 40, 60},
		{"non-positive size is identity", Grid{Size: 0, Enabled: true}, 3, 4, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.grid.Snap(tt.x, tt.y)
			if x != tt.wx || y != tt.wy {
				t.Fatalf("Snap(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, x, y, tt.wx, tt.wy)
			}
		})
	}
}

func TestGridSnapIsIdempotent(t *testing.T) {
	g := Grid{Size: 30, Enabled: true}
	for _, p := range [][2]float64{{0, 0}, {14.9, 15.1}, {-44, 1001}, {299.99, -0.01}} {
		x1, y1 := g.Snap(p[0], p[1])
		x2, y2 := g.Snap(x1, y1)
		if x1 != x2 || y1 != y2 {
			t.Fatalf("snap not idempotent for %v: (%v, %v) then (%v, %v)", p, x1, y1, x2, y2)
		}
	}
}
