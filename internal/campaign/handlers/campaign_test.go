package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campaign-server/internal/campaign"
	"campaign-server/internal/shared/logger"
	"campaign-server/internal/shared/response"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := campaign.NewStore(logger.Discard())
	h := NewCampaignHandler(campaign.NewService(store, logger.Discard()))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", h.Sessions)
	mux.HandleFunc("/api/sessions/{id}", h.SessionByID)
	mux.HandleFunc("/api/sessions/{id}/nodes", h.SessionNodes)
	mux.HandleFunc("/api/nodes/{id}", h.NodeByID)
	mux.HandleFunc("/api/sessions/{id}/connections", h.SessionConnections)
	mux.HandleFunc("/api/connections/{id}", h.ConnectionByID)
	mux.HandleFunc("/api/sessions/{id}/timeline", h.SessionTimeline)
	mux.HandleFunc("/api/timeline/{id}", h.TimelineEventByID)
	mux.HandleFunc("/api/scenarios", h.Scenarios)
	mux.HandleFunc("/api/scenarios/{id}", h.ScenarioByID)
	mux.HandleFunc("/api/scenarios/{id}/regions", h.ScenarioRegions)
	mux.HandleFunc("/api/regions/{id}", h.RegionByID)
	mux.HandleFunc("/api/scenarios/{id}/sessions", h.ScenarioSessions)
	mux.HandleFunc("/api/links/{id}", h.LinkByID)
	mux.HandleFunc("/api/npcs", h.NPCs)
	mux.HandleFunc("/api/npcs/{id}", h.NPCByID)
	mux.HandleFunc("/api/quests", h.Quests)
	mux.HandleFunc("/api/quests/{id}", h.QuestByID)
	mux.HandleFunc("/api/dashboard/threats", h.ThreatDashboard)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var session campaign.Session
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/sessions", map[string]any{"name": "Heist"}, &session); code != http.StatusCreated {
		t.Fatalf("create session status = %d", code)
	}

	var a, b campaign.Node
	doJSON(t, http.MethodPost, srv.URL+"/api/sessions/"+session.ID+"/nodes", map[string]any{"title": "Vault", "type": "scene"}, &a)
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/sessions/"+session.ID+"/nodes", map[string]any{"title": "Chase", "type": "combat", "phase": 12}, &b); code != http.StatusCreated {
		t.Fatalf("create node status = %d", code)
	}
	if b.Phase != campaign.MaxPhase {
		t.Fatalf("phase = %d", b.Phase)
	}

	var conn campaign.Connection
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/sessions/"+session.ID+"/connections", map[string]any{"fromNodeId": a.ID, "toNodeId": b.ID}, &conn); code != http.StatusCreated {
		t.Fatalf("create connection status = %d", code)
	}

	var patched campaign.Node
	if code := doJSON(t, http.MethodPatch, srv.URL+"/api/nodes/"+a.ID, map[string]any{"title": "Inner vault"}, &patched); code != http.StatusOK {
		t.Fatalf("patch node status = %d", code)
	}
	if patched.Title != "Inner vault" || patched.Type != campaign.NodeScene {
		t.Fatalf("patched = %+v", patched)
	}

	var deleted DeleteSessionResponse
	if code := doJSON(t, http.MethodDelete, srv.URL+"/api/sessions/"+session.ID, nil, &deleted); code != http.StatusOK {
		t.Fatalf("delete session status = %d", code)
	}
	if deleted.Cascade.Nodes != 2 || deleted.Cascade.Connections != 1 {
		t.Fatalf("cascade = %+v", deleted.Cascade)
	}

	var errResp response.ErrorResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/connections/"+conn.ID, nil, &errResp); code != http.StatusNotFound {
		t.Fatalf("connection after cascade status = %d", code)
	}
	if errResp.Error != "not_found" {
		t.Fatalf("error = %+v", errResp)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	srv := newTestServer(t)

	var scenario campaign.Scenario
	doJSON(t, http.MethodPost, srv.URL+"/api/scenarios", map[string]any{"name": "Siege"}, &scenario)
	var session campaign.Session
	doJSON(t, http.MethodPost, srv.URL+"/api/sessions", map[string]any{"name": "Heist"}, &session)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing name", http.MethodPost, "/api/sessions", map[string]any{}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/sessions", "{", http.StatusBadRequest},
		{"region for unknown scenario", http.MethodPost, "/api/scenarios/ghost/regions", map[string]any{"name": "Nowhere"}, http.StatusConflict},
		{"node for unknown session", http.MethodPost, "/api/sessions/ghost/nodes", map[string]any{"title": "Lost", "type": "scene"}, http.StatusConflict},
		{"unknown quest", http.MethodGet, "/api/quests/ghost", nil, http.StatusNotFound},
		{"bad quest filter", http.MethodGet, "/api/quests?status=lost", nil, http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/api/sessions", map[string]any{}, http.StatusMethodNotAllowed},
		{"unlink with get", http.MethodGet, "/api/links/anything", nil, http.StatusMethodNotAllowed},
		{"link unknown session", http.MethodPost, "/api/scenarios/" + scenario.ID + "/sessions", map[string]any{"sessionId": "ghost"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp response.ErrorResponse
			if code := doJSON(t, tt.method, srv.URL+tt.path, tt.body, &errResp); code != tt.want {
				t.Fatalf("status = %d, want %d (%+v)", code, tt.want, errResp)
			}
			if errResp.Code != tt.want {
				t.Fatalf("body code = %d, want %d", errResp.Code, tt.want)
			}
		})
	}

	var link campaign.ScenarioSession
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/"+scenario.ID+"/sessions", map[string]any{"sessionId": session.ID}, &link); code != http.StatusCreated {
		t.Fatalf("link status = %d", code)
	}
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/"+scenario.ID+"/sessions", map[string]any{"sessionId": session.ID}, nil); code != http.StatusConflict {
		t.Fatalf("duplicate link status = %d", code)
	}
	if code := doJSON(t, http.MethodDelete, srv.URL+"/api/links/"+link.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("unlink status = %d", code)
	}
}

func TestScenarioCharactersAndDashboard(t *testing.T) {
	srv := newTestServer(t)

	var scenario campaign.Scenario
	doJSON(t, http.MethodPost, srv.URL+"/api/scenarios", map[string]any{"name": "Siege"}, &scenario)
	var region campaign.Region
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/"+scenario.ID+"/regions", map[string]any{"name": "Keep", "type": "fortress", "threatLevel": 9}, &region); code != http.StatusCreated {
		t.Fatalf("create region status = %d", code)
	}
	if region.ThreatLevel != 5 {
		t.Fatalf("threat = %d", region.ThreatLevel)
	}

	var npc campaign.NPC
	doJSON(t, http.MethodPost, srv.URL+"/api/npcs", map[string]any{"name": "Warden", "disposition": "hostile", "regionId": region.ID}, &npc)
	doJSON(t, http.MethodPost, srv.URL+"/api/npcs", map[string]any{"name": "Cook"}, nil)

	var inRegion []campaign.NPC
	doJSON(t, http.MethodGet, srv.URL+"/api/npcs?regionId="+region.ID, nil, &inRegion)
	if len(inRegion) != 1 || inRegion[0].ID != npc.ID {
		t.Fatalf("npcs in region = %+v", inRegion)
	}

	var quest campaign.Quest
	doJSON(t, http.MethodPost, srv.URL+"/api/quests", map[string]any{"title": "Breach", "status": "active", "giverId": npc.ID}, &quest)
	if quest.Priority != campaign.DefaultPriority {
		t.Fatalf("priority = %d", quest.Priority)
	}

	var dashboard campaign.ThreatDashboard
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/dashboard/threats", nil, &dashboard); code != http.StatusOK {
		t.Fatalf("dashboard status = %d", code)
	}
	if len(dashboard.HostileNPCs) != 1 || len(dashboard.ActiveQuests) != 1 || len(dashboard.HighestRegions) != 1 {
		t.Fatalf("dashboard = %+v", dashboard)
	}

	var deleted DeleteScenarioResponse
	doJSON(t, http.MethodDelete, srv.URL+"/api/scenarios/"+scenario.ID, nil, &deleted)
	if deleted.Cascade.Regions != 1 || deleted.Cascade.Unlinked != 1 {
		t.Fatalf("cascade = %+v", deleted.Cascade)
	}

	var after campaign.NPC
	doJSON(t, http.MethodGet, srv.URL+"/api/npcs/"+npc.ID, nil, &after)
	if after.RegionID != "" {
		t.Fatalf("npc still linked: %+v", after)
	}

	if code := doJSON(t, http.MethodDelete, srv.URL+"/api/npcs/"+npc.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete npc status = %d", code)
	}
	var orphan campaign.Quest
	doJSON(t, http.MethodGet, srv.URL+"/api/quests/"+quest.ID, nil, &orphan)
	if orphan.GiverID != "" {
		t.Fatalf("giver not cleared: %+v", orphan)
	}
}
