package handlers

import (
	"log/slog"
	"net/http"

	"campaign-server/internal/campaign"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

type DeleteSessionResponse struct {
	ID      string                  `json:"id"`
	Cascade campaign.SessionCascade `json:"cascade"`
}

// Sessions serves /api/sessions.
func (h *CampaignHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "sessions")

	switch r.Method {
	case http.MethodGet:
		sessions, err := h.service.ListSessions(r.Context())
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, sessions)
	case http.MethodPost:
		var in campaign.SessionInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		session, err := h.service.CreateSession(r.Context(), in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, session)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// SessionByID serves /api/sessions/{id}. DELETE reports what the cascade removed.
func (h *CampaignHandler) SessionByID(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "session_by_id")

	id, err := pathID(r, "id", "session")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		session, err := h.service.GetSession(r.Context(), id)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, session)
	case http.MethodPut, http.MethodPatch:
		var in campaign.SessionInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		session, err := h.service.UpdateSession(r.Context(), id, in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, session)
	case http.MethodDelete:
		cascade, err := h.service.DeleteSession(r.Context(), id)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, DeleteSessionResponse{ID: id, Cascade: cascade})
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// SessionNodes serves /api/sessions/{id}/nodes.
func (h *CampaignHandler) SessionNodes(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "session_nodes")

	sessionID, err := pathID(r, "id", "session")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		nodes, err := h.service.ListNodes(r.Context(), sessionID)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, nodes)
	case http.MethodPost:
		var in campaign.NodeInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		node, err := h.service.CreateNode(r.Context(), sessionID, in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, node)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// NodeByID serves /api/nodes/{id}.
func (h *CampaignHandler) NodeByID(w http.ResponseWriter, r *http.Request) {
	serveByID(h, w, r, resource[campaign.Node, campaign.NodeInput]{
		name: "node",
		get: func(h *CampaignHandler, r *http.Request, id string) (campaign.Node, error) {
			return h.service.GetNode(r.Context(), id)
		},
		update: func(h *CampaignHandler, r *http.Request, id string, in campaign.NodeInput) (campaign.Node, error) {
			return h.service.UpdateNode(r.Context(), id, in)
		},
		remove: func(h *CampaignHandler, r *http.Request, id string) error {
			return h.service.DeleteNode(r.Context(), id)
		},
	})
}

// SessionConnections serves /api/sessions/{id}/connections.
func (h *CampaignHandler) SessionConnections(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "session_connections")

	sessionID, err := pathID(r, "id", "session")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		connections, err := h.service.ListConnections(r.Context(), sessionID)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, connections)
	case http.MethodPost:
		var in campaign.ConnectionInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		connection, err := h.service.CreateConnection(r.Context(), sessionID, in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, connection)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// ConnectionByID serves /api/connections/{id}.
func (h *CampaignHandler) ConnectionByID(w http.ResponseWriter, r *http.Request) {
	serveByID(h, w, r, resource[campaign.Connection, campaign.ConnectionInput]{
		name: "connection",
		get: func(h *CampaignHandler, r *http.Request, id string) (campaign.Connection, error) {
			return h.service.GetConnection(r.Context(), id)
		},
		update: func(h *CampaignHandler, r *http.Request, id string, in campaign.ConnectionInput) (campaign.Connection, error) {
			return h.service.UpdateConnection(r.Context(), id, in)
		},
		remove: func(h *CampaignHandler, r *http.Request, id string) error {
			return h.service.DeleteConnection(r.Context(), id)
		},
	})
}

// SessionTimeline serves /api/sessions/{id}/timeline.
func (h *CampaignHandler) SessionTimeline(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "session_timeline")

	sessionID, err := pathID(r, "id", "session")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		events, err := h.service.ListTimeline(r.Context(), sessionID)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusOK, events)
	case http.MethodPost:
		var in campaign.TimelineEventInput
		if err := decodeJSON(w, r, &in); err != nil {
			response.Error(w, r, logger, err)
			return
		}
		event, err := h.service.CreateTimelineEvent(r.Context(), sessionID, in)
		if err != nil {
			response.Error(w, r, logger, err)
			return
		}
		response.Success(w, http.StatusCreated, event)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

// TimelineEventByID serves /api/timeline/{id}.
func (h *CampaignHandler) TimelineEventByID(w http.ResponseWriter, r *http.Request) {
	serveByID(h, w, r, resource[campaign.TimelineEvent, campaign.TimelineEventInput]{
		name: "timeline_event",
		get: func(h *CampaignHandler, r *http.Request, id string) (campaign.TimelineEvent, error) {
			return h.service.GetTimelineEvent(r.Context(), id)
		},
		update: func(h *CampaignHandler, r *http.Request, id string, in campaign.TimelineEventInput) (campaign.TimelineEvent, error) {
			return h.service.UpdateTimelineEvent(r.Context(), id, in)
		},
		remove: func(h *CampaignHandler, r *http.Request, id string) error {
			return h.service.DeleteTimelineEvent(r.Context(), id)
		},
	})
}
