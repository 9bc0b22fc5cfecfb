package server

import (
	"log/slog"
	"net/http"

	authHandlers "campaign-server/internal/auth/handlers"
	"campaign-server/internal/campaign"
	campaignHandlers "campaign-server/internal/campaign/handlers"
	"campaign-server/internal/mapeditor"
	mapHandlers "campaign-server/internal/mapeditor/handlers"
	"campaign-server/internal/middleware"
	serverHandlers "campaign-server/internal/server/handlers"
	"campaign-server/internal/shared/config"
)

type Routes struct {
	mapService      *mapeditor.Service
	campaignService *campaign.Service
	health          *serverHandlers.HealthHandler
	session         *authHandlers.SessionHandler
	authConfig      config.AuthConfig
	logger          *slog.Logger
}

func NewRoutes(mapService *mapeditor.Service, campaignService *campaign.Service, health *serverHandlers.HealthHandler, session *authHandlers.SessionHandler, authConfig config.AuthConfig, logger *slog.Logger) *Routes {
	return &Routes{
		mapService:      mapService,
		campaignService: campaignService,
		health:          health,
		session:         session,
		authConfig:      authConfig,
		logger:          logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	maps := mapHandlers.NewMapHandler(r.mapService)
	records := campaignHandlers.NewCampaignHandler(r.campaignService)

	// Writes to maps and records need a game master token when auth is on
	protect := middleware.JWT(r.authConfig)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	// Public endpoints
	mux.Handle("/api/server/health", r.health)
	mux.Handle("/api/auth/session", r.session)

	// Map editor
	handle("/api/maps", maps.Maps)
	handle("/api/maps/{id}", maps.MapByID)
	handle("/api/maps/{id}/cities", maps.Cities)
	handle("/api/maps/{id}/cities/bulk", maps.BulkUpdate)
	handle("/api/maps/{id}/cities/area", maps.SelectInArea)
	handle("/api/maps/{id}/cities/{cityId}", maps.CityByID)
	handle("/api/maps/{id}/cities/{cityId}/move", maps.MoveCity)
	handle("/api/maps/{id}/cities/{cityId}/duplicate", maps.DuplicateCity)
	handle("/api/maps/{id}/placement", maps.CheckPlacement)
	handle("/api/maps/{id}/view", maps.UpdateView)
	handle("/api/maps/{id}/transform", maps.Transform)
	handle("/api/maps/{id}/zoom", maps.Zoom)
	handle("/api/maps/{id}/pan", maps.Pan)
	handle("/api/maps/{id}/undo", maps.Undo)
	handle("/api/maps/{id}/redo", maps.Redo)
	handle("/api/maps/{id}/history", maps.History)
	handle("/api/maps/{id}/export", maps.Export)
	handle("/api/maps/{id}/import", maps.Import)
	handle("/api/maps/{id}/save", maps.Save)
	handle("/api/maps/{id}/load", maps.Load)
	handle("/api/maps/{id}/preview.png", maps.Preview)

	// Session flow
	handle("/api/sessions", records.Sessions)
	handle("/api/sessions/{id}", records.SessionByID)
	handle("/api/sessions/{id}/nodes", records.SessionNodes)
	handle("/api/sessions/{id}/connections", records.SessionConnections)
	handle("/api/sessions/{id}/timeline", records.SessionTimeline)
	handle("/api/nodes/{id}", records.NodeByID)
	handle("/api/connections/{id}", records.ConnectionByID)
	handle("/api/timeline/{id}", records.TimelineEventByID)

	// Scenarios
	handle("/api/scenarios", records.Scenarios)
	handle("/api/scenarios/{id}", records.ScenarioByID)
	handle("/api/scenarios/{id}/regions", records.ScenarioRegions)
	handle("/api/scenarios/{id}/sessions", records.ScenarioSessions)
	handle("/api/regions/{id}", records.RegionByID)
	handle("/api/links/{id}", records.LinkByID)
	handle("/api/npcs", records.NPCs)
	handle("/api/npcs/{id}", records.NPCByID)
	handle("/api/quests", records.Quests)
	handle("/api/quests/{id}", records.QuestByID)
	handle("/api/dashboard/threats", records.ThreatDashboard)

	logger.Info("Routes configured successfully",
		"map_endpoints", "/api/maps/...",
		"record_endpoints", []string{"/api/sessions", "/api/scenarios", "/api/npcs", "/api/quests"},
		"dashboard_endpoints", []string{"/api/dashboard/threats"},
		"auth_endpoints", []string{"/api/auth/session"},
		"auth_enabled", r.authConfig.Enabled,
	)

	return mux
}
