package mapeditor

import (
	"image/color"
	"io"
	"math"
	"sync"

	"campaign-server/internal/shared/errors"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	MinPreviewSize = 64
	MaxPreviewSize = 4096

	// Grid lines closer than this on screen are not drawn.
	minGridSpacingPx = 4.0
)

var (
	backgroundColor = color.RGBA{R: 0x1e, G: 0x1f, B: 0x24, A: 0xff}
	gridColor       = color.RGBA{R: 0x3a, G: 0x3c, B: 0x44, A: 0xff}
	labelColor      = color.RGBA{R: 0xe8, G: 0xe6, B: 0xe3, A: 0xff}

	stanceColors = map[PoliticalStance]color.RGBA{
		StanceHostile:  {R: 0xd9, G: 0x48, B: 0x3b, A: 0xff},
		StanceNeutral:  {R: 0xc9, G: 0xa2, B: 0x27, A: 0xff},
		StanceFriendly: {R: 0x4c, G: 0xaf, B: 0x50, A: 0xff},
		StanceAllied:   {R: 0x3f, G: 0x8c, B: 0xd9, A: 0xff},
		StanceUnknown:  {R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
	}
)

var (
	labelFontOnce sync.Once
	labelFont     *truetype.Font
	labelFontErr  error
)

func loadLabelFont() (*truetype.Font, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = truetype.Parse(gomono.TTF)
	})
	return labelFont, labelFontErr
}

// ClampPreviewSize keeps a requested image dimension inside the supported range.
func ClampPreviewSize(px int) int {
	if px < MinPreviewSize {
		return MinPreviewSize
	}
	if px > MaxPreviewSize {
		return MaxPreviewSize
	}
	return px
}

// RenderPNG draws state as seen through its viewport into a width x height PNG.
// Cities are dots coloured by political stance, larger for higher threat.
func RenderPNG(w io.Writer, state ViewState, width, height int) error {
	width, height = ClampPreviewSize(width), ClampPreviewSize(height)
	view := state.Viewport()
	zoom := ClampZoom(view.Zoom)

	dc := gg.NewContext(width, height)
	dc.SetColor(backgroundColor)
	dc.Clear()

	if state.GridVisible && state.GridSize > 0 {
		drawGrid(dc, view, float64(state.GridSize), float64(width), float64(height))
	}

	ttf, err := loadLabelFont()
	if err != nil {
		return errors.WrapInternal("failed to parse label font", err)
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    math.Max(8, 11*math.Sqrt(zoom)),
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	for _, c := range state.Cities {
		sx, sy := view.ToScreen(c.X, c.Y)
		radius := (3 + float64(ClampThreat(c.ThreatLevel))) * math.Sqrt(zoom)
		if sx < -radius || sy < -radius || sx > float64(width)+radius || sy > float64(height)+radius {
			continue
		}

		fill, ok := stanceColors[c.PoliticalStance]
		if !ok {
			fill = stanceColors[StanceUnknown]
		}
		dc.SetColor(fill)
		dc.DrawCircle(sx, sy, radius)
		dc.Fill()

		dc.SetColor(labelColor)
		dc.SetLineWidth(1)
		dc.DrawCircle(sx, sy, radius)
		dc.Stroke()

		if c.Name != "" {
			dc.DrawStringAnchored(c.Name, sx, sy+radius+2, 0.5, 1)
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return errors.WrapInternal("failed to encode preview", err)
	}
	return nil
}

func drawGrid(dc *gg.Context, view Viewport, size, width, height float64) {
	zoom := ClampZoom(view.Zoom)
	if size*zoom < minGridSpacingPx {
		return
	}

	minX, minY := view.ToWorld(0, 0)
	maxX, maxY := view.ToWorld(width, height)

	dc.SetColor(gridColor)
	dc.SetLineWidth(1)
	for _, x := range gridLines(minX, maxX, size, width/(size*zoom)) {
		sx, _ := view.ToScreen(x, 0)
		dc.DrawLine(sx, 0, sx, height)
	}
	for _, y := range gridLines(minY, maxY, size, height/(size*zoom)) {
		_, sy := view.ToScreen(0, y)
		dc.DrawLine(0, sy, width, sy)
	}
	dc.Stroke()
}

// gridLines returns the grid coordinates in [lo, hi]. The count is bounded by
// the number of cells visible on screen, so far-off pans where lo+size == lo
// in float64 still terminate.
func gridLines(lo, hi, size, cells float64) []float64 {
	n := int(math.Ceil(cells)) + 1
	first := math.Ceil(lo/size) * size
	lines := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := first + float64(i)*size
		if v > hi {
			break
		}
		lines = append(lines, v)
	}
	return lines
}

func (e *Editor) RenderPNG(w io.Writer, width, height int) error {
	return RenderPNG(w, e.State(), width, height)
}
