package handlers

import (
	"log/slog"
	"net/http"

	"campaign-server/internal/campaign"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

// NPCs serves /api/npcs. GET accepts ?regionId= to filter.
func (h *CampaignHandler) NPCs(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "npcs")

	switch r.Method {
	case http.MethodGet:
		npcs, err := h.service.ListNPCs(r.Context(), r.URL.Query().Get("regionId"))
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, npcs)
	case http.MethodPost:
		var in campaign.NPCInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		npc, err := h.service.CreateNPC(r.Context(), in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, npc)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

func (h *CampaignHandler) NPCByID(w http.ResponseWriter, r *http.Request) {
	serveByID(h, w, r, resource[campaign.NPC, campaign.NPCInput]{
		name: "npc",
		get: func(h *CampaignHandler, r *http.Request, id string) (campaign.NPC, error) {
			return h.service.GetNPC(r.Context(), id)
		},
		update: func(h *CampaignHandler, r *http.Request, id string, in campaign.NPCInput) (campaign.NPC, error) {
			return h.service.UpdateNPC(r.Context(), id, in)
		},
		remove: func(h *CampaignHandler, r *http.Request, id string) error {
			return h.service.DeleteNPC(r.Context(), id)
		},
	})
}

// Quests serves /api/quests. GET accepts ?status= to filter.
func (h *CampaignHandler) Quests(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "quests")

	switch r.Method {
	case http.MethodGet:
		status := campaign.QuestStatus(r.URL.Query().Get("status"))
		if status != "" && !status.IsValid() {
			response.Error(w, r, logger, errors.Validationf("unknown quest status %q", status))
			return
		}
		quests, err := h.service.ListQuests(r.Context(), status)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, quests)
	case http.MethodPost:
		var in campaign.QuestInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		quest, err := h.service.CreateQuest(r.Context(), in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, quest)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

func (h *CampaignHandler) QuestByID(w http.ResponseWriter, r *http.Request) {
	serveByID(h, w, r, resource[campaign.Quest, campaign.QuestInput]{
		name: "quest",
		get: func(h *CampaignHandler, r *http.Request, id string) (campaign.Quest, error) {
			return h.service.GetQuest(r.Context(), id)
		},
		update: func(h *CampaignHandler, r *http.Request, id string, in campaign.QuestInput) (campaign.Quest, error) {
			return h.service.UpdateQuest(r.Context(), id, in)
		},
		remove: func(h *CampaignHandler, r *http.Request, id string) error {
			return h.service.DeleteQuest(r.Context(), id)
		},
	})
}
