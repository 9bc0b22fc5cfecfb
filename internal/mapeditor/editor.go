package mapeditor

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"campaign-server/internal/shared/errors"

	"github.com/google/uuid"
)

type Options struct {
	HistorySize int
	MinDistance float64
	GridSize    int
	// EnforcePlacement turns the minimum-distance check into a hard
	// precondition for AddCity and MoveCity. Off means advisory only.
	EnforcePlacement bool
	Now              func() time.Time
	NewID            func() string
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.HistorySize < 1 {
		o.HistorySize = DefaultHistorySize
	}
	if o.MinDistance < 0 {
		o.MinDistance = 0
	}
	if o.GridSize < 1 {
		o.GridSize = 50
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.NewString() }
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

var errNoMatch = errors.NotFoundf("no matching cities")

// Editor owns one map's view state and its history. All mutations go through
// apply, which validates the candidate state and records exactly one history
// entry per call.
type Editor struct {
	mu        sync.Mutex
	opts      Options
	state     ViewState
	history   *History
	listeners map[int]func()
	nextID    int
	logger    *slog.Logger
}

func NewEditor(initial []City, opts Options) (*Editor, error) {
	opts = opts.withDefaults()

	state := DefaultViewState(opts.GridSize)
	for _, c := range initial {
		c = c.clone()
		if c.ID == "" {
			c.ID = opts.NewID()
		}
		state.Cities = append(state.Cities, c)
	}
	if err := normalizeState(&state); err != nil {
		return nil, err
	}

	return &Editor{
		opts:      opts,
		state:     state,
		history:   NewHistory(opts.HistorySize, state, opts.Now),
		listeners: make(map[int]func()),
		logger:    opts.Logger.With("component", "map_editor"),
	}, nil
}

// OnChange registers fn to run after every committed change, including undo
// and redo. It returns a function that removes the registration.
func (e *Editor) OnChange(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.listeners[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Editor) notify() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// State returns a deep copy of the current view state.
func (e *Editor) State() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// apply is the single mutation entry point. mutate works on a copy; nothing is
// committed or recorded if it, or the invariant check, fails.
func (e *Editor) apply(action string, mutate func(s *ViewState) error) error {
	return e.commit(func(s *ViewState) (string, error) {
		return action, mutate(s)
	})
}

// commit is apply for mutations whose history label depends on the state they read.
func (e *Editor) commit(mutate func(s *ViewState) (string, error)) error {
	e.mu.Lock()
	next := e.state.Clone()
	action, err := mutate(&next)
	if err == nil {
		err = normalizeState(&next)
	}
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = next
	e.history.Record(next, action)
	e.mu.Unlock()

	e.logger.Debug("Map state changed", "action", action, "cities", len(next.Cities))
	e.notify()
	return nil
}

func (e *Editor) snapPosition(s *ViewState, x, y float64) (float64, float64) {
	return s.Grid().Snap(x, y)
}

func displayName(c City) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// AddCity places a new city at the snapped position. The placement check is
// always computed and returned; it only blocks the add when EnforcePlacement is set.
func (e *Editor) AddCity(x, y float64, attrs CityPatch) (City, PlacementResult, error) {
	var (
		created   City
		placement PlacementResult
	)

	err := e.commit(func(s *ViewState) (string, error) {
		sx, sy := e.snapPosition(s, x, y)
		placement = ValidatePlacement(s.Cities, sx, sy, e.opts.MinDistance, "")
		if !placement.Valid && e.opts.EnforcePlacement {
			return "", errors.Validationf("cannot place city: %s", placement.Reason)
		}

		c := City{
			ID:          e.opts.NewID(),
			Type:        CityTypeCity,
			ThreatLevel: MinThreatLevel,
		}
		attrs.X, attrs.Y = nil, nil
		attrs.apply(&c)
		c.X, c.Y = sx, sy
		if c.Name = strings.TrimSpace(c.Name); c.Name == "" {
			c.Name = fmt.Sprintf("City %d", len(s.Cities)+1)
		}
		if err := normalizeCity(&c); err != nil {
			return "", err
		}

		s.Cities = append(s.Cities, c)
		created = c.clone()
		return "Add entity: " + displayName(c), nil
	})

	return created, placement, err
}

func (e *Editor) UpdateCity(id string, patch CityPatch) (City, error) {
	var updated City
	err := e.commit(func(s *ViewState) (string, error) {
		i := s.indexOf(id)
		if i < 0 {
			return "", errors.NotFoundf("city %s not found", id)
		}
		patch.apply(&s.Cities[i])
		if err := normalizeCity(&s.Cities[i]); err != nil {
			return "", err
		}
		updated = s.Cities[i].clone()
		return "Update entity: " + displayName(updated), nil
	})
	return updated, err
}

func (e *Editor) RemoveCity(id string) error {
	return e.commit(func(s *ViewState) (string, error) {
		i := s.indexOf(id)
		if i < 0 {
			return "", errors.NotFoundf("city %s not found", id)
		}
		removed := s.Cities[i]
		s.Cities = append(s.Cities[:i], s.Cities[i+1:]...)
		return "Delete entity: " + displayName(removed), nil
	})
}

// MoveCity relocates a city to the snapped position. The moving city is
// excluded from its own placement check.
func (e *Editor) MoveCity(id string, x, y float64) (City, PlacementResult, error) {
	var (
		moved     City
		placement PlacementResult
	)
	err := e.commit(func(s *ViewState) (string, error) {
		i := s.indexOf(id)
		if i < 0 {
			return "", errors.NotFoundf("city %s not found", id)
		}
		sx, sy := e.snapPosition(s, x, y)
		placement = ValidatePlacement(s.Cities, sx, sy, e.opts.MinDistance, id)
		if !placement.Valid && e.opts.EnforcePlacement {
			return "", errors.Validationf("cannot move city: %s", placement.Reason)
		}
		s.Cities[i].X, s.Cities[i].Y = sx, sy
		moved = s.Cities[i].clone()
		return "Move entity: " + displayName(moved), nil
	})
	return moved, placement, err
}

// BulkUpdate applies the same patch to every listed city as one history entry,
// so a single undo reverts the whole batch. Unknown ids are skipped. It
// returns the number of cities changed; zero matches records nothing.
func (e *Editor) BulkUpdate(ids []string, patch CityPatch) (int, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	changed := 0
	err := e.commit(func(s *ViewState) (string, error) {
		for i := range s.Cities {
			if _, ok := wanted[s.Cities[i].ID]; !ok {
				continue
			}
			patch.apply(&s.Cities[i])
			if err := normalizeCity(&s.Cities[i]); err != nil {
				return "", err
			}
			changed++
		}
		if changed == 0 {
			return "", errNoMatch
		}
		return fmt.Sprintf("Bulk update: %d cities", changed), nil
	})
	if err == errNoMatch {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// SelectInArea returns the cities inside the inclusive box spanned by the two
// corners, in either order.
func (e *Editor) SelectInArea(x1, y1, x2, y2 float64) []City {
	minX, maxX := math.Min(x1, x2), math.Max(x1, x2)
	minY, maxY := math.Min(y1, y2), math.Max(y1, y2)

	e.mu.Lock()
	defer e.mu.Unlock()

	selected := []City{}
	for _, c := range e.state.Cities {
		if c.X >= minX && c.X <= maxX && c.Y >= minY && c.Y <= maxY {
			selected = append(selected, c.clone())
		}
	}
	return selected
}

// DuplicateCity copies a city one grid cell to the right and below.
func (e *Editor) DuplicateCity(id string) (City, error) {
	var dup City
	err := e.commit(func(s *ViewState) (string, error) {
		i := s.indexOf(id)
		if i < 0 {
			return "", errors.NotFoundf("city %s not found", id)
		}
		dup = s.Cities[i].clone()
		dup.ID = e.opts.NewID()
		dup.Name = s.Cities[i].Name + " (copy)"
		offset := float64(s.GridSize)
		dup.X, dup.Y = e.snapPosition(s, dup.X+offset, dup.Y+offset)
		s.Cities = append(s.Cities, dup)
		dup = dup.clone()
		return "Duplicate entity: " + displayName(s.Cities[i]), nil
	})
	return dup, err
}

func (e *Editor) ClearCities() error {
	return e.apply("Clear all entities", func(s *ViewState) error {
		s.Cities = []City{}
		return nil
	})
}

// CheckPlacement runs the placement check against the current state without mutating it.
func (e *Editor) CheckPlacement(x, y float64, excludeID string) PlacementResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	sx, sy := e.state.Grid().Snap(x, y)
	return ValidatePlacement(e.state.Cities, sx, sy, e.opts.MinDistance, excludeID)
}

// ViewPatch is a partial update of the display settings.
type ViewPatch struct {
	Zoom        *float64 `json:"zoom,omitempty"`
	PanX        *float64 `json:"panX,omitempty"`
	PanY        *float64 `json:"panY,omitempty"`
	GridVisible *bool    `json:"gridVisible,omitempty"`
	GridSize    *int     `json:"gridSize,omitempty"`
	SnapToGrid  *bool    `json:"snapToGrid,omitempty"`
	MapImage    *string  `json:"mapImage,omitempty"`
}

func (e *Editor) UpdateView(patch ViewPatch) error {
	if patch.GridSize != nil && *patch.GridSize <= 0 {
		return errors.Validationf("grid size must be positive (got %d)", *patch.GridSize)
	}
	return e.apply(viewActionLabel(patch), func(s *ViewState) error {
		if patch.Zoom != nil {
			s.Zoom = ClampZoom(*patch.Zoom)
		}
		if patch.PanX != nil {
			s.PanX = *patch.PanX
		}
		if patch.PanY != nil {
			s.PanY = *patch.PanY
		}
		if patch.GridVisible != nil {
			s.GridVisible = *patch.GridVisible
		}
		if patch.GridSize != nil {
			s.GridSize = *patch.GridSize
		}
		if patch.SnapToGrid != nil {
			s.SnapToGrid = *patch.SnapToGrid
		}
		if patch.MapImage != nil {
			s.MapImage = *patch.MapImage
		}
		return nil
	})
}

func viewActionLabel(p ViewPatch) string {
	switch {
	case p.Zoom != nil && p.PanX == nil && p.PanY == nil && p.GridVisible == nil && p.GridSize == nil && p.SnapToGrid == nil && p.MapImage == nil:
		return "Zoom"
	case p.Zoom == nil && (p.PanX != nil || p.PanY != nil) && p.GridVisible == nil && p.GridSize == nil && p.SnapToGrid == nil && p.MapImage == nil:
		return "Pan"
	case p.MapImage != nil && p.Zoom == nil && p.PanX == nil && p.PanY == nil && p.GridVisible == nil && p.GridSize == nil && p.SnapToGrid == nil:
		return "Set background"
	default:
		return "Update view"
	}
}

func (e *Editor) SetZoom(zoom float64) error {
	return e.UpdateView(ViewPatch{Zoom: &zoom})
}

// ZoomAt scales the zoom by factor around a screen point.
func (e *Editor) ZoomAt(factor, screenX, screenY float64) error {
	if factor <= 0 || !isFinite(factor) {
		return errors.Validation("zoom factor must be a positive number")
	}
	return e.apply("Zoom", func(s *ViewState) error {
		v := s.Viewport().ZoomAt(factor, screenX, screenY)
		s.Zoom, s.PanX, s.PanY = v.Zoom, v.PanX, v.PanY
		return nil
	})
}

// PanBy shifts the view by a screen-space delta, as a drag would.
func (e *Editor) PanBy(dxScreen, dyScreen float64) error {
	return e.apply("Pan", func(s *ViewState) error {
		zoom := ClampZoom(s.Zoom)
		s.PanX -= dxScreen / zoom
		s.PanY -= dyScreen / zoom
		return nil
	})
}

func (e *Editor) SetGridSize(size int) error {
	return e.UpdateView(ViewPatch{GridSize: &size})
}

func (e *Editor) SetSnapToGrid(enabled bool) error {
	return e.UpdateView(ViewPatch{SnapToGrid: &enabled})
}

func (e *Editor) SetGridVisible(visible bool) error {
	return e.UpdateView(ViewPatch{GridVisible: &visible})
}

func (e *Editor) SetBackground(image string) error {
	return e.UpdateView(ViewPatch{MapImage: &image})
}

// ToScreen and ToWorld convert using the current viewport.
func (e *Editor) ToScreen(worldX, worldY float64) (float64, float64) {
	return e.viewport().ToScreen(worldX, worldY)
}

func (e *Editor) ToWorld(screenX, screenY float64) (float64, float64) {
	return e.viewport().ToWorld(screenX, screenY)
}

func (e *Editor) viewport() Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Viewport()
}

// Undo restores the previous snapshot. It reports false when there is nothing to undo.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	state, ok := e.history.Undo()
	if ok {
		e.state = state
	}
	e.mu.Unlock()

	if ok {
		e.notify()
	}
	return ok
}

// Redo re-applies the next snapshot. It reports false at the newest entry.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	state, ok := e.history.Redo()
	if ok {
		e.state = state
	}
	e.mu.Unlock()

	if ok {
		e.notify()
	}
	return ok
}

type HistoryInfo struct {
	Entries  []EntrySummary `json:"entries"`
	Cursor   int            `json:"cursor"`
	Capacity int            `json:"capacity"`
	CanUndo  bool           `json:"canUndo"`
	CanRedo  bool           `json:"canRedo"`
}

func (e *Editor) History() HistoryInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HistoryInfo{
		Entries:  e.history.Entries(),
		Cursor:   e.history.Cursor(),
		Capacity: e.history.Capacity(),
		CanUndo:  e.history.CanUndo(),
		CanRedo:  e.history.CanRedo(),
	}
}
