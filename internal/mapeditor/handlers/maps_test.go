package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campaign-server/internal/mapeditor"
	"campaign-server/internal/shared/logger"
	"campaign-server/internal/shared/response"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := mapeditor.NewService(mapeditor.NewMemoryKV(), mapeditor.Options{MinDistance: 50}, 0, logger.Discard())
	h := NewMapHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/maps", h.Maps)
	mux.HandleFunc("/api/maps/{id}", h.MapByID)
	mux.HandleFunc("/api/maps/{id}/cities", h.Cities)
	mux.HandleFunc("/api/maps/{id}/cities/bulk", h.BulkUpdate)
	mux.HandleFunc("/api/maps/{id}/cities/area", h.SelectInArea)
	mux.HandleFunc("/api/maps/{id}/cities/{cityId}", h.CityByID)
	mux.HandleFunc("/api/maps/{id}/cities/{cityId}/move", h.MoveCity)
	mux.HandleFunc("/api/maps/{id}/placement", h.CheckPlacement)
	mux.HandleFunc("/api/maps/{id}/view", h.UpdateView)
	mux.HandleFunc("/api/maps/{id}/transform", h.Transform)
	mux.HandleFunc("/api/maps/{id}/undo", h.Undo)
	mux.HandleFunc("/api/maps/{id}/history", h.History)
	mux.HandleFunc("/api/maps/{id}/export", h.Export)
	mux.HandleFunc("/api/maps/{id}/import", h.Import)
	mux.HandleFunc("/api/maps/{id}/save", h.Save)
	mux.HandleFunc("/api/maps/{id}/load", h.Load)
	mux.HandleFunc("/api/maps/{id}/preview.png", h.Preview)

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
	case []byte:
		reader = bytes.NewReader(b)
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

func createMap(t *testing.T, srv *httptest.Server, id string) {
	t.Helper()
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps", map[string]any{"id": id}, nil); status != http.StatusCreated {
		t.Fatalf("create map status = %d", status)
	}
}

func TestCreateAndGetMap(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")

	var got MapResponse
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/maps/north", nil, &got); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if got.ID != "north" || got.State.GridSize != 50 || got.History == nil || got.History.Capacity != mapeditor.DefaultHistorySize {
		t.Fatalf("response = %+v", got)
	}

	var errResp response.ErrorResponse
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/maps/south", nil, &errResp); status != http.StatusNotFound {
		t.Fatalf("missing map status = %d", status)
	}
	if errResp.Error != "not_found" {
		t.Fatalf("error = %+v", errResp)
	}
}

func TestAddCityAdvisoryPlacementAndUndo(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")

	var first PlacedCityResponse
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/cities", map[string]any{"x": 100, "y": 100, "name": "Ashford"}, &first); status != http.StatusCreated {
		t.Fatalf("status = %d", status)
	}

	var second PlacedCityResponse
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/cities", map[string]any{"x": 110, "y": 100}, &second); status != http.StatusCreated {
		t.Fatalf("status = %d", status)
	}
	if second.Placement.Valid || second.Placement.ConflictID != first.City.ID {
		t.Fatalf("placement = %+v", second.Placement)
	}

	var step HistoryStepResponse
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/undo", nil, &step); status != http.StatusOK {
		t.Fatalf("undo status = %d", status)
	}
	if !step.Changed || len(step.State.Cities) != 1 {
		t.Fatalf("undo = %+v", step)
	}

	var history mapeditor.HistoryInfo
	doJSON(t, http.MethodGet, srv.URL+"/api/maps/north/history", nil, &history)
	if !history.CanRedo || history.Cursor != 1 {
		t.Fatalf("history = %+v", history)
	}
}

func TestAddCityRequiresPosition(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")

	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/cities", map[string]any{"name": "Nowhere"}, nil); status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestCityPatchMoveAndDelete(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")

	var added PlacedCityResponse
	doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/cities", map[string]any{"x": 0, "y": 0}, &added)
	cityURL := srv.URL + "/api/maps/north/cities/" + added.City.ID

	var updated mapeditor.City
	if status := doJSON(t, http.MethodPatch, cityURL, map[string]any{"threatLevel": 12, "type": "fortress"}, &updated); status != http.StatusOK {
		t.Fatalf("patch status = %d", status)
	}
	if updated.ThreatLevel != 5 || updated.Type != mapeditor.CityTypeFortress {
		t.Fatalf("updated = %+v", updated)
	}

	if status := doJSON(t, http.MethodPatch, cityURL, map[string]any{"type": "castle"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad type status = %d", status)
	}

	var moved PlacedCityResponse
	if status := doJSON(t, http.MethodPost, cityURL+"/move", map[string]any{"x": 300, "y": 40}, &moved); status != http.StatusOK {
		t.Fatalf("move status = %d", status)
	}
	if moved.City.X != 300 || moved.City.Y != 40 {
		t.Fatalf("moved = %+v", moved.City)
	}

	if status := doJSON(t, http.MethodDelete, cityURL, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	if status := doJSON(t, http.MethodDelete, cityURL, nil, nil); status != http.StatusNotFound {
		t.Fatalf("second delete status = %d", status)
	}
}

func TestBulkUpdateAndArea(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")

	var ids []string
	for _, x := range []int{0, 100, 500} {
		var added PlacedCityResponse
		doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/cities", map[string]any{"x": x, "y": 0}, &added)
		ids = append(ids, added.City.ID)
	}

	var bulk BulkUpdateResponse
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/cities/bulk", map[string]any{
		"ids":   ids,
		"patch": map[string]any{"faction": "Iron Pact"},
	}, &bulk); status != http.StatusOK {
		t.Fatalf("bulk status = %d", status)
	}
	if bulk.Updated != 3 {
		t.Fatalf("updated = %d", bulk.Updated)
	}

	var area []mapeditor.City
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/maps/north/cities/area?x1=-10&y1=-10&x2=150&y2=10", nil, &area); status != http.StatusOK {
		t.Fatalf("area status = %d", status)
	}
	if len(area) != 2 {
		t.Fatalf("area returned %d cities, want 2", len(area))
	}

	if status := doJSON(t, http.MethodGet, srv.URL+"/api/maps/north/cities/area?x1=a", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("bad area status = %d", status)
	}
}

func TestViewTransformAndPlacement(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")

	var state mapeditor.ViewState
	if status := doJSON(t, http.MethodPut, srv.URL+"/api/maps/north/view", map[string]any{"zoom": 2, "panX": 10, "panY": 20}, &state); status != http.StatusOK {
		t.Fatalf("view status = %d", status)
	}
	if state.Zoom != 2 {
		t.Fatalf("zoom = %v", state.Zoom)
	}

	var p PointResponse
	doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/transform", map[string]any{"direction": "toScreen", "x": 60, "y": 70}, &p)
	if p.X != 100 || p.Y != 100 {
		t.Fatalf("toScreen = %+v", p)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/transform", map[string]any{"direction": "sideways"}, nil); status != http.StatusBadRequest {
		t.Fatalf("bad direction status = %d", status)
	}

	if status := doJSON(t, http.MethodPut, srv.URL+"/api/maps/north/view", map[string]any{"gridSize": 0}, nil); status != http.StatusBadRequest {
		t.Fatalf("zero grid status = %d", status)
	}

	var placement mapeditor.PlacementResult
	doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/placement", map[string]any{"x": 5, "y": 5}, &placement)
	if !placement.Valid {
		t.Fatalf("placement on empty map = %+v", placement)
	}
}

func TestExportImportSaveLoad(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")
	createMap(t, srv, "copy")
	doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/cities", map[string]any{"x": 1, "y": 2, "name": "Ashford"}, nil)

	resp, err := http.Get(srv.URL + "/api/maps/north/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var exported bytes.Buffer
	_, _ = exported.ReadFrom(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}

	var result mapeditor.LoadResult
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/copy/import", exported.Bytes(), &result); status != http.StatusOK || !result.Success {
		t.Fatalf("import = (%d, %+v)", status, result)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/copy/import", []byte(`{"nope":1}`), &result); status != http.StatusBadRequest || result.Success {
		t.Fatalf("bad import = (%d, %+v)", status, result)
	}

	var saved SaveResponse
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/north/save", map[string]any{"key": "slot-1"}, &saved); status != http.StatusOK || saved.Key != "slot-1" {
		t.Fatalf("save = (%d, %+v)", status, saved)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/copy/load", map[string]any{"key": "slot-1"}, &result); status != http.StatusOK || result.CityCount != 1 {
		t.Fatalf("load = (%d, %+v)", status, result)
	}
	if status := doJSON(t, http.MethodPost, srv.URL+"/api/maps/copy/load", nil, &result); status != http.StatusNotFound || result.Error != "no saved data found" {
		t.Fatalf("load of empty slot = (%d, %+v)", status, result)
	}
}

func TestPreviewAndMethodChecks(t *testing.T) {
	srv := newTestServer(t)
	createMap(t, srv, "north")

	resp, err := http.Get(srv.URL + "/api/maps/north/preview.png?width=200&height=100")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("preview = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	if status := doJSON(t, http.MethodGet, srv.URL+"/api/maps/north/undo", nil, nil); status != http.StatusMethodNotAllowed {
		t.Fatalf("GET undo status = %d", status)
	}
	if status := doJSON(t, http.MethodPut, srv.URL+"/api/maps", nil, nil); status != http.StatusMethodNotAllowed {
		t.Fatalf("PUT maps status = %d", status)
	}
}
