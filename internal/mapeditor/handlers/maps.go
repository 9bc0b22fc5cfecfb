package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"campaign-server/internal/mapeditor"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Exported maps may carry a data-URL background image.
const maxImportBytes = 16 << 20

type MapHandler struct {
	service *mapeditor.Service
}

func NewMapHandler(service *mapeditor.Service) *MapHandler {
	return &MapHandler{service: service}
}

type createMapRequest struct {
	ID     string           `json:"id"`
	Cities []mapeditor.City `json:"cities"`
}

type MapResponse struct {
	ID      string                 `json:"id"`
	State   mapeditor.ViewState    `json:"state"`
	History *mapeditor.HistoryInfo `json:"history,omitempty"`
}

type HistoryStepResponse struct {
	Changed bool                `json:"changed"`
	State   mapeditor.ViewState `json:"state"`
}

type saveRequest struct {
	Key string `json:"key"`
}

type SaveResponse struct {
	Key string `json:"key"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.WrapValidation("invalid JSON in request body", err)
	}
	return nil
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || err == io.EOF {
		return nil
	}
	return errors.WrapValidation("invalid JSON in request body", err)
}

func (h *MapHandler) editor(r *http.Request) (*mapeditor.Editor, string, error) {
	id := r.PathValue("id")
	if id == "" {
		return nil, "", errors.Validation("map ID is required")
	}
	editor, err := h.service.GetMap(id)
	return editor, id, err
}

// Maps serves /api/maps.
func (h *MapHandler) Maps(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListMaps(w, r)
	case http.MethodPost:
		h.CreateMap(w, r)
	default:
		response.Error(w, r, slog.With("handler", "maps"), errors.MethodNotAllowed(r.Method))
	}
}

func (h *MapHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_map")

	var req createMapRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	id, editor, err := h.service.CreateMap(req.ID, req.Cities)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, MapResponse{ID: id, State: editor.State()})
}

func (h *MapHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, h.service.ListMaps())
}

// MapByID serves /api/maps/{id}.
func (h *MapHandler) MapByID(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "map_by_id")

	switch r.Method {
	case http.MethodGet:
		editor, id, err := h.editor(r)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		history := editor.History()
		response.Success(w, http.StatusOK, MapResponse{ID: id, State: editor.State(), History: &history})
	case http.MethodDelete:
		if err := h.service.DeleteMap(r.PathValue("id")); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.NoContent(w)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

func (h *MapHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "undo", (*mapeditor.Editor).Undo)
}

func (h *MapHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "redo", (*mapeditor.Editor).Redo)
}

func (h *MapHandler) step(w http.ResponseWriter, r *http.Request, name string, move func(*mapeditor.Editor) bool) {
	logger := slog.With("handler", name)

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	changed := move(editor)
	response.Success(w, http.StatusOK, HistoryStepResponse{Changed: changed, State: editor.State()})
}

func (h *MapHandler) History(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "history")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, editor.History())
}

func (h *MapHandler) Export(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "export_map")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, id, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	data, err := editor.Export()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\"map-"+id+".json\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import takes an exported map file as the raw request body.
func (h *MapHandler) Import(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "import_map")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("failed to read map file", err))
		return
	}

	result := editor.Import(data)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	response.Success(w, status, result)
}

func (h *MapHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "save_map")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req saveRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	key, err := h.service.SaveMap(ctx, r.PathValue("id"), req.Key)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, SaveResponse{Key: key})
}

func (h *MapHandler) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "load_map")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req saveRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.LoadMap(ctx, r.PathValue("id"), req.Key)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusNotFound
	}
	response.Success(w, status, result)
}
