package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"campaign-server/internal/mapeditor"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

type PlacedCityResponse struct {
	City      mapeditor.City            `json:"city"`
	Placement mapeditor.PlacementResult `json:"placement"`
}

type positionRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (p positionRequest) coordinates() (float64, float64, error) {
	if p.X == nil || p.Y == nil {
		return 0, 0, errors.Validation("x and y are required")
	}
	return *p.X, *p.Y, nil
}

type bulkUpdateRequest struct {
	IDs   []string            `json:"ids"`
	Patch mapeditor.CityPatch `json:"patch"`
}

type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

type placementRequest struct {
	positionRequest
	ExcludeID string `json:"excludeId"`
}

// Cities serves /api/maps/{id}/cities: list, add, or clear all.
func (h *MapHandler) Cities(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "cities")

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		response.Success(w, http.StatusOK, editor.State().Cities)
	case http.MethodPost:
		var attrs mapeditor.CityPatch
		if err := decodeJSON(w, r, &attrs); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		x, y, err := positionRequest{X: attrs.X, Y: attrs.Y}.coordinates()
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}

		city, placement, err := editor.AddCity(x, y, attrs)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, PlacedCityResponse{City: city, Placement: placement})
	case http.MethodDelete:
		if err := editor.ClearCities(); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.NoContent(w)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// CityByID serves PATCH and DELETE on /api/maps/{id}/cities/{cityId}.
func (h *MapHandler) CityByID(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "city_by_id")

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	cityID := r.PathValue("cityId")

	switch r.Method {
	case http.MethodPatch:
		var patch mapeditor.CityPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		city, err := editor.UpdateCity(cityID, patch)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, city)
	case http.MethodDelete:
		if err := editor.RemoveCity(cityID); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.NoContent(w)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

func (h *MapHandler) MoveCity(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "move_city")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req positionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	x, y, err := req.coordinates()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	city, placement, err := editor.MoveCity(r.PathValue("cityId"), x, y)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, PlacedCityResponse{City: city, Placement: placement})
}

func (h *MapHandler) DuplicateCity(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "duplicate_city")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	city, err := editor.DuplicateCity(r.PathValue("cityId"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, city)
}

func (h *MapHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "bulk_update_cities")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req bulkUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	updated, err := editor.BulkUpdate(req.IDs, req.Patch)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, BulkUpdateResponse{Updated: updated})
}

func (h *MapHandler) SelectInArea(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "select_in_area")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var corners [4]float64
	for i, name := range []string{"x1", "y1", "x2", "y2"} {
		v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
		if err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid "+name+" query parameter", err))
			return
		}
		corners[i] = v
	}

	response.Success(w, http.StatusOK, editor.SelectInArea(corners[0], corners[1], corners[2], corners[3]))
}

func (h *MapHandler) CheckPlacement(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "check_placement")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	editor, _, err := h.editor(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var req placementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	x, y, err := req.coordinates()
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, editor.CheckPlacement(x, y, req.ExcludeID))
}
