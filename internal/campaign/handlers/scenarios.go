package handlers

import (
	"log/slog"
	"net/http"

	"campaign-server/internal/campaign"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

type DeleteScenarioResponse struct {
	ID      string                   `json:"id"`
	Cascade campaign.ScenarioCascade `json:"cascade"`
}

type linkSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// Scenarios serves /api/scenarios.
func (h *CampaignHandler) Scenarios(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "scenarios")

	switch r.Method {
	case http.MethodGet:
		scenarios, err := h.service.ListScenarios(r.Context())
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, scenarios)
	case http.MethodPost:
		var in campaign.ScenarioInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		scenario, err := h.service.CreateScenario(r.Context(), in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, scenario)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// ScenarioByID serves /api/scenarios/{id}.
func (h *CampaignHandler) ScenarioByID(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "scenario_by_id")

	id, err := pathID(r, "id", "scenario")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		scenario, err := h.service.GetScenario(r.Context(), id)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, scenario)
	case http.MethodPut, http.MethodPatch:
		var in campaign.ScenarioInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		scenario, err := h.service.UpdateScenario(r.Context(), id, in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, scenario)
	case http.MethodDelete:
		cascade, err := h.service.DeleteScenario(r.Context(), id)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, DeleteScenarioResponse{ID: id, Cascade: cascade})
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// ScenarioRegions serves /api/scenarios/{id}/regions.
func (h *CampaignHandler) ScenarioRegions(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "scenario_regions")

	scenarioID, err := pathID(r, "id", "scenario")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		regions, err := h.service.ListRegions(r.Context(), scenarioID)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, regions)
	case http.MethodPost:
		var in campaign.RegionInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		region, err := h.service.CreateRegion(r.Context(), scenarioID, in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, region)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// RegionByID serves /api/regions/{id}.
func (h *CampaignHandler) RegionByID(w http.ResponseWriter, r *http.Request) {
	serveByID(h, w, r, resource[campaign.Region, campaign.RegionInput]{
		name: "region",
		get: func(h *CampaignHandler, r *http.Request, id string) (campaign.Region, error) {
			return h.service.GetRegion(r.Context(), id)
		},
		update: func(h *CampaignHandler, r *http.Request, id string, in campaign.RegionInput) (campaign.Region, error) {
			return h.service.UpdateRegion(r.Context(), id, in)
		},
		remove: func(h *CampaignHandler, r *http.Request, id string) error {
			return h.service.DeleteRegion(r.Context(), id)
		},
	})
}

// ScenarioSessions serves /api/scenarios/{id}/sessions: GET lists links,
// POST {"sessionId"} links a session.
func (h *CampaignHandler) ScenarioSessions(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "scenario_sessions")

	scenarioID, err := pathID(r, "id", "scenario")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		links, err := h.service.ListScenarioSessions(r.Context(), scenarioID)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, links)
	case http.MethodPost:
		var req linkSessionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		link, err := h.service.LinkSession(r.Context(), scenarioID, req.SessionID)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, link)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// LinkByID serves DELETE /api/links/{id}.
func (h *CampaignHandler) LinkByID(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "unlink_session")

	if r.Method != http.MethodDelete {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	id, err := pathID(r, "id", "link")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if err := h.service.UnlinkSession(r.Context(), id); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.NoContent(w)
}
