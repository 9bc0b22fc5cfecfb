package campaign

import (
	"context"
	"log/slog"
)

// Service runs each record operation as one store transaction.
type Service struct {
	store  *Store
	logger *slog.Logger
}

func NewService(store *Store, logger *slog.Logger) *Service {
	logger.Debug("Initializing campaign service")
	return &Service{store: store, logger: logger}
}

func write[T any](ctx context.Context, s *Service, fn func(tx *Tx) (T, error)) (T, error) {
	var out T
	err := s.store.RunInTransaction(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

func read[T any](ctx context.Context, s *Service, fn func(tx *Tx) (T, error)) (T, error) {
	var out T
	err := s.store.View(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

func (s *Service) ListSessions(ctx context.Context) ([]Session, error) {
	return read(ctx, s, func(tx *Tx) ([]Session, error) { return tx.Sessions(), nil })
}

func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return read(ctx, s, func(tx *Tx) (Session, error) { return tx.Session(id) })
}

func (s *Service) CreateSession(ctx context.Context, in SessionInput) (Session, error) {
	session, err := write(ctx, s, func(tx *Tx) (Session, error) { return tx.CreateSession(in) })
	if err == nil {
		s.logger.Info("Session created", "component", "campaign_service", "session_id", session.ID)
	}
	return session, err
}

func (s *Service) UpdateSession(ctx context.Context, id string, in SessionInput) (Session, error) {
	return write(ctx, s, func(tx *Tx) (Session, error) { return tx.UpdateSession(id, in) })
}

func (s *Service) DeleteSession(ctx context.Context, id string) (SessionCascade, error) {
	cascade, err := write(ctx, s, func(tx *Tx) (SessionCascade, error) { return tx.DeleteSession(id) })
	if err == nil {
		s.logger.Info("Session deleted",
			"component", "campaign_service",
			"session_id", id,
			"nodes", cascade.Nodes,
			"connections", cascade.Connections,
			"timeline_events", cascade.TimelineEvents,
			"scenario_links", cascade.Links,
		)
	}
	return cascade, err
}

func (s *Service) ListNodes(ctx context.Context, sessionID string) ([]Node, error) {
	return read(ctx, s, func(tx *Tx) ([]Node, error) { return tx.NodesBySession(sessionID) })
}

func (s *Service) GetNode(ctx context.Context, id string) (Node, error) {
	return read(ctx, s, func(tx *Tx) (Node, error) { return tx.Node(id) })
}

func (s *Service) CreateNode(ctx context.Context, sessionID string, in NodeInput) (Node, error) {
	return write(ctx, s, func(tx *Tx) (Node, error) { return tx.CreateNode(sessionID, in) })
}

func (s *Service) UpdateNode(ctx context.Context, id string, in NodeInput) (Node, error) {
	return write(ctx, s, func(tx *Tx) (Node, error) { return tx.UpdateNode(id, in) })
}

func (s *Service) DeleteNode(ctx context.Context, id string) error {
	removed, err := write(ctx, s, func(tx *Tx) (int, error) { return tx.DeleteNode(id) })
	if err == nil {
		s.logger.Debug("Node deleted", "component", "campaign_service", "node_id", id, "connections", removed)
	}
	return err
}

func (s *Service) ListConnections(ctx context.Context, sessionID string) ([]Connection, error) {
	return read(ctx, s, func(tx *Tx) ([]Connection, error) { return tx.ConnectionsBySession(sessionID) })
}

func (s *Service) GetConnection(ctx context.Context, id string) (Connection, error) {
	return read(ctx, s, func(tx *Tx) (Connection, error) { return tx.Connection(id) })
}

func (s *Service) CreateConnection(ctx context.Context, sessionID string, in ConnectionInput) (Connection, error) {
	return write(ctx, s, func(tx *Tx) (Connection, error) { return tx.CreateConnection(sessionID, in) })
}

func (s *Service) UpdateConnection(ctx context.Context, id string, in ConnectionInput) (Connection, error) {
	return write(ctx, s, func(tx *Tx) (Connection, error) { return tx.UpdateConnection(id, in) })
}

func (s *Service) DeleteConnection(ctx context.Context, id string) error {
	_, err := write(ctx, s, func(tx *Tx) (struct{}, error) { return struct{}{}, tx.DeleteConnection(id) })
	return err
}

func (s *Service) ListTimeline(ctx context.Context, sessionID string) ([]TimelineEvent, error) {
	return read(ctx, s, func(tx *Tx) ([]TimelineEvent, error) { return tx.Timeline(sessionID) })
}

func (s *Service) GetTimelineEvent(ctx context.Context, id string) (TimelineEvent, error) {
	return read(ctx, s, func(tx *Tx) (TimelineEvent, error) { return tx.TimelineEvent(id) })
}

func (s *Service) CreateTimelineEvent(ctx context.Context, sessionID string, in TimelineEventInput) (TimelineEvent, error) {
	return write(ctx, s, func(tx *Tx) (TimelineEvent, error) { return tx.CreateTimelineEvent(sessionID, in) })
}

func (s *Service) UpdateTimelineEvent(ctx context.Context, id string, in TimelineEventInput) (TimelineEvent, error) {
	return write(ctx, s, func(tx *Tx) (TimelineEvent, error) { return tx.UpdateTimelineEvent(id, in) })
}

func (s *Service) DeleteTimelineEvent(ctx context.Context, id string) error {
	_, err := write(ctx, s, func(tx *Tx) (struct{}, error) { return struct{}{}, tx.DeleteTimelineEvent(id) })
	return err
}

func (s *Service) ListScenarios(ctx context.Context) ([]Scenario, error) {
	return read(ctx, s, func(tx *Tx) ([]Scenario, error) { return tx.Scenarios(), nil })
}

func (s *Service) GetScenario(ctx context.Context, id string) (Scenario, error) {
	return read(ctx, s, func(tx *Tx) (Scenario, error) { return tx.Scenario(id) })
}

func (s *Service) CreateScenario(ctx context.Context, in ScenarioInput) (Scenario, error) {
	scenario, err := write(ctx, s, func(tx *Tx) (Scenario, error) { return tx.CreateScenario(in) })
	if err == nil {
		s.logger.Info("Scenario created", "component", "campaign_service", "scenario_id", scenario.ID)
	}
	return scenario, err
}

func (s *Service) UpdateScenario(ctx context.Context, id string, in ScenarioInput) (Scenario, error) {
	return write(ctx, s, func(tx *Tx) (Scenario, error) { return tx.UpdateScenario(id, in) })
}

func (s *Service) DeleteScenario(ctx context.Context, id string) (ScenarioCascade, error) {
	cascade, err := write(ctx, s, func(tx *Tx) (ScenarioCascade, error) { return tx.DeleteScenario(id) })
	if err == nil {
		s.logger.Info("Scenario deleted",
			"component", "campaign_service",
			"scenario_id", id,
			"regions", cascade.Regions,
			"session_links", cascade.Links,
			"unlinked_records", cascade.Unlinked,
		)
	}
	return cascade, err
}

func (s *Service) ListRegions(ctx context.Context, scenarioID string) ([]Region, error) {
	return read(ctx, s, func(tx *Tx) ([]Region, error) { return tx.RegionsByScenario(scenarioID) })
}

func (s *Service) GetRegion(ctx context.Context, id string) (Region, error) {
	return read(ctx, s, func(tx *Tx) (Region, error) { return tx.Region(id) })
}

func (s *Service) CreateRegion(ctx context.Context, scenarioID string, in RegionInput) (Region, error) {
	return write(ctx, s, func(tx *Tx) (Region, error) { return tx.CreateRegion(scenarioID, in) })
}

func (s *Service) UpdateRegion(ctx context.Context, id string, in RegionInput) (Region, error) {
	return write(ctx, s, func(tx *Tx) (Region, error) { return tx.UpdateRegion(id, in) })
}

func (s *Service) DeleteRegion(ctx context.Context, id string) error {
	unlinked, err := write(ctx, s, func(tx *Tx) (int, error) { return tx.DeleteRegion(id) })
	if err == nil {
		s.logger.Debug("Region deleted", "component", "campaign_service", "region_id", id, "unlinked_records", unlinked)
	}
	return err
}

func (s *Service) ListScenarioSessions(ctx context.Context, scenarioID string) ([]ScenarioSession, error) {
	return read(ctx, s, func(tx *Tx) ([]ScenarioSession, error) { return tx.LinksByScenario(scenarioID) })
}

func (s *Service) LinkSession(ctx context.Context, scenarioID, sessionID string) (ScenarioSession, error) {
	return write(ctx, s, func(tx *Tx) (ScenarioSession, error) { return tx.LinkSession(scenarioID, sessionID) })
}

func (s *Service) UnlinkSession(ctx context.Context, linkID string) error {
	_, err := write(ctx, s, func(tx *Tx) (struct{}, error) { return struct{}{}, tx.UnlinkSession(linkID) })
	return err
}

func (s *Service) ListNPCs(ctx context.Context, regionID string) ([]NPC, error) {
	return read(ctx, s, func(tx *Tx) ([]NPC, error) { return tx.NPCs(regionID), nil })
}

func (s *Service) GetNPC(ctx context.Context, id string) (NPC, error) {
	return read(ctx, s, func(tx *Tx) (NPC, error) { return tx.NPC(id) })
}

func (s *Service) CreateNPC(ctx context.Context, in NPCInput) (NPC, error) {
	return write(ctx, s, func(tx *Tx) (NPC, error) { return tx.CreateNPC(in) })
}

func (s *Service) UpdateNPC(ctx context.Context, id string, in NPCInput) (NPC, error) {
	return write(ctx, s, func(tx *Tx) (NPC, error) { return tx.UpdateNPC(id, in) })
}

func (s *Service) DeleteNPC(ctx context.Context, id string) error {
	unlinked, err := write(ctx, s, func(tx *Tx) (int, error) { return tx.DeleteNPC(id) })
	if err == nil {
		s.logger.Debug("NPC deleted", "component", "campaign_service", "npc_id", id, "unlinked_quests", unlinked)
	}
	return err
}

func (s *Service) ListQuests(ctx context.Context, status QuestStatus) ([]Quest, error) {
	return read(ctx, s, func(tx *Tx) ([]Quest, error) { return tx.Quests(status), nil })
}

func (s *Service) GetQuest(ctx context.Context, id string) (Quest, error) {
	return read(ctx, s, func(tx *Tx) (Quest, error) { return tx.Quest(id) })
}

func (s *Service) CreateQuest(ctx context.Context, in QuestInput) (Quest, error) {
	return write(ctx, s, func(tx *Tx) (Quest, error) { return tx.CreateQuest(in) })
}

func (s *Service) UpdateQuest(ctx context.Context, id string, in QuestInput) (Quest, error) {
	return write(ctx, s, func(tx *Tx) (Quest, error) { return tx.UpdateQuest(id, in) })
}

func (s *Service) DeleteQuest(ctx context.Context, id string) error {
	_, err := write(ctx, s, func(tx *Tx) (struct{}, error) { return struct{}{}, tx.DeleteQuest(id) })
	return err
}

func (s *Service) ThreatDashboard(ctx context.Context) (ThreatDashboard, error) {
	return read(ctx, s, func(tx *Tx) (ThreatDashboard, error) { return tx.ThreatDashboard(), nil })
}
