package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"campaign-server/internal/mapeditor"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

const (
	directionToScreen = "toScreen"
	directionToWorld  = "toWorld"
)

type transformRequest struct {
	Direction string  `json:"direction"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type PointResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type zoomRequest struct {
	Factor  float64 `json:"factor"`
	ScreenX float64 `json:"screenX"`
	ScreenY float64 `json:"screenY"`
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (h *MapHandler) UpdateView(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "update_view")

	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var patch mapeditor.ViewPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if err := editor.UpdateView(patch); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, editor.State())
}

func (h *MapHandler) Transform(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "transform")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req transformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var p PointResponse
	switch req.Direction {
	case directionToScreen:
		p.X, p.Y = editor.ToScreen(req.X, req.Y)
	case directionToWorld:
		p.X, p.Y = editor.ToWorld(req.X, req.Y)
	default:
		response.Error(w, r, logger, errors.Validationf("direction must be %q or %q", directionToScreen, directionToWorld))
		return
	}

	response.Success(w, http.StatusOK, p)
}

func (h *MapHandler) Zoom(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "zoom")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req zoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if err := editor.ZoomAt(req.Factor, req.ScreenX, req.ScreenY); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, editor.State())
}

func (h *MapHandler) Pan(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "pan")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req panRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if err := editor.PanBy(req.DX, req.DY); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, editor.State())
}

// Preview renders the current viewport as a PNG.
func (h *MapHandler) Preview(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "preview_map")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	width, err := intQuery(r, "width", 800)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	height, err := intQuery(r, "height", 600)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var buf bytes.Buffer
	if err := editor.RenderPNG(&buf, width, height); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.WrapValidation("invalid "+name+" query parameter", err)
	}
	return v, nil
}
