package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"campaign-server/internal/campaign"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

const maxBodyBytes = 1 << 20 // 1 MB

type CampaignHandler struct {
	service *campaign.Service
}

func NewCampaignHandler(service *campaign.Service) *CampaignHandler {
	return &CampaignHandler{service: service}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.WrapValidation("invalid JSON in request body", err)
	}
	return nil
}

// pathID reads a required path value.
func pathID(r *http.Request, name, label string) (string, error) {
	id := r.PathValue(name)
	if id == "" {
		return "", errors.Validationf("%s ID is required", label)
	}
	return id, nil
}

// resource bundles the operations behind a /api/<kind>/{id} endpoint.
type resource[T, In any] struct {
	name   string
	get    func(h *CampaignHandler, r *http.Request, id string) (T, error)
	update func(h *CampaignHandler, r *http.Request, id string, in In) (T, error)
	remove func(h *CampaignHandler, r *http.Request, id string) error
}

// serveByID dispatches GET, PUT/PATCH and DELETE for a single record.
func serveByID[T, In any](h *CampaignHandler, w http.ResponseWriter, r *http.Request, res resource[T, In]) {
	logger := slog.With("handler", res.name+"_by_id")

	id, err := pathID(r, "id", res.name)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := res.get(h, r, id)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, record)
	case http.MethodPut, http.MethodPatch:
		var in In
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		record, err := res.update(h, r, id, in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, record)
	case http.MethodDelete:
		if err := res.remove(h, r, id); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.NoContent(w)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// ThreatDashboard serves /api/dashboard/threats.
func (h *CampaignHandler) ThreatDashboard(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "threat_dashboard")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	dashboard, err := h.service.ThreatDashboard(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, dashboard)
}
