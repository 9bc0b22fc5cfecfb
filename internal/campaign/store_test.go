package campaign

import (
	"context"
	"testing"

	"campaign-server/internal/mapeditor"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/logger"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func newTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	store := NewStore(logger.Discard())
	return NewService(store, logger.Discard()), store
}

func mustSession(t *testing.T, s *Service, name string) Session {
	t.Helper()
	session, err := s.CreateSession(context.Background(), SessionInput{Name: strPtr(name)})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session
}

func mustNode(t *testing.T, s *Service, sessionID, title string) Node {
	t.Helper()
	nodeType := NodeScene
	node, err := s.CreateNode(context.Background(), sessionID, NodeInput{Title: strPtr(title), Type: &nodeType})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	return node
}

func TestSessionDefaultsAndValidation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	session := mustSession(t, s, "  Session Zero ")
	if session.Name != "Session Zero" || session.Status != SessionPlanned || session.ID == "" {
		t.Fatalf("session = %+v", session)
	}

	if _, err := s.CreateSession(ctx, SessionInput{Name: strPtr("   ")}); !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Fatalf("blank name err = %v", err)
	}
	bad := SessionStatus("paused")
	if _, err := s.UpdateSession(ctx, session.ID, SessionInput{Status: &bad}); !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Fatalf("bad status err = %v", err)
	}

	got, err := s.GetSession(ctx, session.ID)
	if err != nil || got.Status != SessionPlanned {
		t.Fatalf("failed update leaked: %+v, %v", got, err)
	}

	active := SessionActive
	updated, err := s.UpdateSession(ctx, session.ID, SessionInput{Status: &active, Notes: strPtr("bring dice")})
	if err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if updated.ID != session.ID || updated.Name != "Session Zero" || updated.Status != SessionActive || updated.Notes != "bring dice" {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	session := mustSession(t, s, "Raid")
	other := mustSession(t, s, "Other")
	a := mustNode(t, s, session.ID, "Ambush")
	b := mustNode(t, s, session.ID, "Escape")
	keep := mustNode(t, s, other.ID, "Elsewhere")

	if _, err := s.CreateConnection(ctx, session.ID, ConnectionInput{FromNodeID: &a.ID, ToNodeID: &b.ID}); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if _, err := s.CreateTimelineEvent(ctx, session.ID, TimelineEventInput{Title: strPtr("Gates fall")}); err != nil {
		t.Fatalf("CreateTimelineEvent: %v", err)
	}
	scenario, _ := s.CreateScenario(ctx, ScenarioInput{Name: strPtr("Siege")})
	if _, err := s.LinkSession(ctx, scenario.ID, session.ID); err != nil {
		t.Fatalf("LinkSession: %v", err)
	}

	cascade, err := s.DeleteSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if cascade.Nodes != 2 || cascade.Connections != 1 || cascade.TimelineEvents != 1 || cascade.Links != 1 {
		t.Fatalf("cascade = %+v", cascade)
	}

	counts := store.Counts()
	if counts["sessions"] != 1 || counts["nodes"] != 1 || counts["connections"] != 0 || counts["timelineEvents"] != 0 || counts["scenarioSessions"] != 0 {
		t.Fatalf("counts after cascade = %v", counts)
	}
	if _, err := s.GetNode(ctx, keep.ID); err != nil {
		t.Fatalf("unrelated node removed: %v", err)
	}
	if _, err := s.DeleteSession(ctx, session.ID); !errors.IsType(err, errors.ErrorTypeNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestDeleteNodeRemovesItsConnections(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	session := mustSession(t, s, "Raid")
	a := mustNode(t, s, session.ID, "A")
	b := mustNode(t, s, session.ID, "B")
	c := mustNode(t, s, session.ID, "C")
	s.CreateConnection(ctx, session.ID, ConnectionInput{FromNodeID: &a.ID, ToNodeID: &b.ID})
	s.CreateConnection(ctx, session.ID, ConnectionInput{FromNodeID: &c.ID, ToNodeID: &a.ID})
	s.CreateConnection(ctx, session.ID, ConnectionInput{FromNodeID: &b.ID, ToNodeID: &c.ID})

	if err := s.DeleteNode(ctx, a.ID); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if got := store.Counts()["connections"]; got != 1 {
		t.Fatalf("connections = %d, want 1", got)
	}
}

func TestConnectionRules(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	session := mustSession(t, s, "Raid")
	other := mustSession(t, s, "Other")
	a := mustNode(t, s, session.ID, "A")
	foreign := mustNode(t, s, other.ID, "Foreign")
	missing := "no-such-node"

	tests := []struct {
		name     string
		from, to *string
		want     errors.ErrorType
	}{
		{"self loop", &a.ID, &a.ID, errors.ErrorTypeValidation},
		{"missing endpoint", &a.ID, &missing, errors.ErrorTypeReferentialIntegrity},
		{"cross session", &a.ID, &foreign.ID, errors.ErrorTypeValidation},
		{"missing field", &a.ID, nil, errors.ErrorTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateConnection(ctx, session.ID, ConnectionInput{FromNodeID: tt.from, ToNodeID: tt.to})
			if !errors.IsType(err, tt.want) {
				t.Fatalf("err = %v, want %s", err, tt.want)
			}
		})
	}

	if _, err := s.CreateConnection(ctx, "ghost", ConnectionInput{FromNodeID: &a.ID, ToNodeID: &foreign.ID}); !errors.IsType(err, errors.ErrorTypeReferentialIntegrity) {
		t.Fatalf("unknown session err = %v", err)
	}
}

func TestNodeValidationAndClamping(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	session := mustSession(t, s, "Raid")

	if _, err := s.CreateNode(ctx, session.ID, NodeInput{Title: strPtr("No type")}); !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Fatalf("missing type err = %v", err)
	}
	bad := NodeType("cutscene")
	if _, err := s.CreateNode(ctx, session.ID, NodeInput{Title: strPtr("Bad"), Type: &bad}); !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Fatalf("bad type err = %v", err)
	}

	combat := NodeCombat
	n, err := s.CreateNode(ctx, session.ID, NodeInput{Title: strPtr("Fight"), Type: &combat, Phase: intPtr(9)})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if n.Phase != MaxPhase {
		t.Fatalf("phase = %d, want %d", n.Phase, MaxPhase)
	}

	if _, err := s.CreateNode(ctx, "ghost", NodeInput{Title: strPtr("Lost"), Type: &combat}); !errors.IsType(err, errors.ErrorTypeReferentialIntegrity) {
		t.Fatalf("unknown session err = %v", err)
	}
}

func TestTimelineOrdering(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	session := mustSession(t, s, "Raid")

	first, _ := s.CreateTimelineEvent(ctx, session.ID, TimelineEventInput{Title: strPtr("First")})
	second, _ := s.CreateTimelineEvent(ctx, session.ID, TimelineEventInput{Title: strPtr("Second")})
	if first.Order != 0 || second.Order != 1 || first.Type != EventStory {
		t.Fatalf("first=%+v second=%+v", first, second)
	}

	if _, err := s.UpdateTimelineEvent(ctx, first.ID, TimelineEventInput{Order: intPtr(5)}); err != nil {
		t.Fatalf("UpdateTimelineEvent: %v", err)
	}
	events, err := s.ListTimeline(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListTimeline: %v", err)
	}
	if len(events) != 2 || events[0].ID != second.ID || events[1].ID != first.ID {
		t.Fatalf("timeline order = %+v", events)
	}

	bad := EventType("weather")
	if _, err := s.CreateTimelineEvent(ctx, session.ID, TimelineEventInput{Title: strPtr("Rain"), Type: &bad}); !errors.IsType(err, errors.ErrorTypeValidation) {
		t.Fatalf("bad type err = %v", err)
	}
}

func TestRegionRequiresScenario(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateRegion(ctx, "no-such-scenario", RegionInput{Name: strPtr("Badlands")})
	if !errors.IsType(err, errors.ErrorTypeReferentialIntegrity) {
		t.Fatalf("err = %v, want referential integrity", err)
	}
	if got := store.Counts()["regions"]; got != 0 {
		t.Fatalf("regions = %d after rejected insert", got)
	}

	scenario, _ := s.CreateScenario(ctx, ScenarioInput{Name: strPtr("Siege"), ThreatLevel: intPtr(0)})
	if scenario.ThreatLevel != 1 || scenario.Status != ScenarioDraft {
		t.Fatalf("scenario = %+v", scenario)
	}
	region, err := s.CreateRegion(ctx, scenario.ID, RegionInput{Name: strPtr("Badlands"), ThreatLevel: intPtr(7)})
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	if region.ThreatLevel != 5 || region.Type != mapeditor.CityTypeSettlement {
		t.Fatalf("region = %+v", region)
	}
}

func TestScenarioSessionLinkIsUnique(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	session := mustSession(t, s, "Raid")
	scenario, _ := s.CreateScenario(ctx, ScenarioInput{Name: strPtr("Siege")})

	link, err := s.LinkSession(ctx, scenario.ID, session.ID)
	if err != nil {
		t.Fatalf("LinkSession: %v", err)
	}
	if _, err := s.LinkSession(ctx, scenario.ID, session.ID); !errors.IsType(err, errors.ErrorTypeConflict) {
		t.Fatalf("duplicate link err = %v", err)
	}
	if _, err := s.LinkSession(ctx, scenario.ID, "ghost"); !errors.IsType(err, errors.ErrorTypeReferentialIntegrity) {
		t.Fatalf("unknown session err = %v", err)
	}

	if err := s.UnlinkSession(ctx, link.ID); err != nil {
		t.Fatalf("UnlinkSession: %v", err)
	}
	if _, err := s.LinkSession(ctx, scenario.ID, session.ID); err != nil {
		t.Fatalf("relink after unlink: %v", err)
	}
}

func TestDeleteScenarioCascadesAndUnlinks(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	scenario, _ := s.CreateScenario(ctx, ScenarioInput{Name: strPtr("Siege")})
	region, _ := s.CreateRegion(ctx, scenario.ID, RegionInput{Name: strPtr("Badlands")})
	npc, err := s.CreateNPC(ctx, NPCInput{Name: strPtr("Vex"), RegionID: &region.ID})
	if err != nil {
		t.Fatalf("CreateNPC: %v", err)
	}
	quest, err := s.CreateQuest(ctx, QuestInput{Title: strPtr("Find Vex"), RegionID: &region.ID, GiverID: &npc.ID})
	if err != nil {
		t.Fatalf("CreateQuest: %v", err)
	}
	session := mustSession(t, s, "Raid")
	s.LinkSession(ctx, scenario.ID, session.ID)

	cascade, err := s.DeleteScenario(ctx, scenario.ID)
	if err != nil {
		t.Fatalf("DeleteScenario: %v", err)
	}
	if cascade.Regions != 1 || cascade.Links != 1 || cascade.Unlinked != 2 {
		t.Fatalf("cascade = %+v", cascade)
	}

	gotNPC, _ := s.GetNPC(ctx, npc.ID)
	gotQuest, _ := s.GetQuest(ctx, quest.ID)
	if gotNPC.RegionID != "" || gotQuest.RegionID != "" || gotQuest.GiverID != npc.ID {
		t.Fatalf("npc=%+v quest=%+v", gotNPC, gotQuest)
	}
	if counts := store.Counts(); counts["sessions"] != 1 || counts["scenarioSessions"] != 0 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestNPCAndQuestReferences(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	ghost := "ghost"
	if _, err := s.CreateNPC(ctx, NPCInput{Name: strPtr("Vex"), RegionID: &ghost}); !errors.IsType(err, errors.ErrorTypeReferentialIntegrity) {
		t.Fatalf("npc with missing region err = %v", err)
	}
	if _, err := s.CreateQuest(ctx, QuestInput{Title: strPtr("Lost"), GiverID: &ghost}); !errors.IsType(err, errors.ErrorTypeReferentialIntegrity) {
		t.Fatalf("quest with missing giver err = %v", err)
	}

	npc, _ := s.CreateNPC(ctx, NPCInput{Name: strPtr("Vex"), ThreatLevel: intPtr(11)})
	if npc.Disposition != DispositionNeutral || npc.ThreatLevel != 5 {
		t.Fatalf("npc = %+v", npc)
	}

	quest, _ := s.CreateQuest(ctx, QuestInput{Title: strPtr("Errand"), GiverID: &npc.ID})
	if quest.Priority != DefaultPriority || quest.Status != QuestAvailable {
		t.Fatalf("quest = %+v", quest)
	}
	clamped, _ := s.UpdateQuest(ctx, quest.ID, QuestInput{Priority: intPtr(-2)})
	if clamped.Priority != MinPriority {
		t.Fatalf("priority = %d", clamped.Priority)
	}

	if err := s.DeleteNPC(ctx, npc.ID); err != nil {
		t.Fatalf("DeleteNPC: %v", err)
	}
	got, _ := s.GetQuest(ctx, quest.ID)
	if got.GiverID != "" {
		t.Fatalf("giver not cleared: %+v", got)
	}
}

func TestFailedTransactionRollsBack(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	session := mustSession(t, s, "Raid")
	mustNode(t, s, session.ID, "A")

	err := store.RunInTransaction(ctx, func(tx *Tx) error {
		if _, err := tx.DeleteSession(session.ID); err != nil {
			return err
		}
		_, err := tx.CreateRegion("ghost", RegionInput{Name: strPtr("Nowhere")})
		return err
	})
	if !errors.IsType(err, errors.ErrorTypeReferentialIntegrity) {
		t.Fatalf("err = %v", err)
	}

	counts := store.Counts()
	if counts["sessions"] != 1 || counts["nodes"] != 1 {
		t.Fatalf("partial transaction committed: %v", counts)
	}
}

func TestCancelledContext(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.CreateSession(ctx, SessionInput{Name: strPtr("Late")}); err == nil {
		t.Fatalf("write with cancelled context succeeded")
	}
}

func TestThreatDashboard(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	scenario, _ := s.CreateScenario(ctx, ScenarioInput{Name: strPtr("Siege")})
	for i, name := range []string{"Ashlands", "Brine", "Cinder"} {
		s.CreateRegion(ctx, scenario.ID, RegionInput{Name: strPtr(name), ThreatLevel: intPtr(i + 3)})
	}
	hostile := DispositionHostile
	s.CreateNPC(ctx, NPCInput{Name: strPtr("Vex"), Disposition: &hostile, ThreatLevel: intPtr(4)})
	s.CreateNPC(ctx, NPCInput{Name: strPtr("Oma")})
	active := QuestActive
	s.CreateQuest(ctx, QuestInput{Title: strPtr("Low"), Status: &active, Priority: intPtr(1)})
	s.CreateQuest(ctx, QuestInput{Title: strPtr("High"), Status: &active, Priority: intPtr(5)})
	s.CreateQuest(ctx, QuestInput{Title: strPtr("Idle")})

	d, err := s.ThreatDashboard(ctx)
	if err != nil {
		t.Fatalf("ThreatDashboard: %v", err)
	}
	if len(d.Levels) != 5 || d.Levels[4].Regions != 1 || d.Levels[3].NPCs != 1 || d.Levels[0].NPCs != 1 {
		t.Fatalf("levels = %+v", d.Levels)
	}
	if d.HighestRegions[0].Name != "Cinder" {
		t.Fatalf("highest region = %+v", d.HighestRegions[0])
	}
	if len(d.HostileNPCs) != 1 || d.HostileNPCs[0].Name != "Vex" {
		t.Fatalf("hostile = %+v", d.HostileNPCs)
	}
	if len(d.ActiveQuests) != 2 || d.ActiveQuests[0].Title != "High" {
		t.Fatalf("active quests = %+v", d.ActiveQuests)
	}
}
