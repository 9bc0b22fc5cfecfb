package campaign

import (
	"strings"
	"time"

	"campaign-server/internal/mapeditor"
	"campaign-server/internal/shared/errors"
)

type SessionStatus string

const (
	SessionPlanned   SessionStatus = "planned"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionPlanned, SessionActive, SessionCompleted:
		return true
	}
	return false
}

type NodeType string

const (
	NodeScene       NodeType = "scene"
	NodeCombat      NodeType = "combat"
	NodeDialogue    NodeType = "dialogue"
	NodeExploration NodeType = "exploration"
	NodeDecision    NodeType = "decision"
	NodeReward      NodeType = "reward"
)

func (t NodeType) IsValid() bool {
	switch t {
	case NodeScene, NodeCombat, NodeDialogue, NodeExploration, NodeDecision, NodeReward:
		return true
	}
	return false
}

type EventType string

const (
	EventStory     EventType = "story"
	EventCombat    EventType = "combat"
	EventDiscovery EventType = "discovery"
	EventSocial    EventType = "social"
	EventMilestone EventType = "milestone"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventStory, EventCombat, EventDiscovery, EventSocial, EventMilestone:
		return true
	}
	return false
}

type ScenarioStatus string

const (
	ScenarioDraft    ScenarioStatus = "draft"
	ScenarioActive   ScenarioStatus = "active"
	ScenarioArchived ScenarioStatus = "archived"
)

func (s ScenarioStatus) IsValid() bool {
	switch s {
	case ScenarioDraft, ScenarioActive, ScenarioArchived:
		return true
	}
	return false
}

type Disposition string

const (
	DispositionFriendly Disposition = "friendly"
	DispositionNeutral  Disposition = "neutral"
	DispositionHostile  Disposition = "hostile"
)

func (d Disposition) IsValid() bool {
	switch d {
	case DispositionFriendly, DispositionNeutral, DispositionHostile:
		return true
	}
	return false
}

type QuestStatus string

const (
	QuestAvailable QuestStatus = "available"
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

func (s QuestStatus) IsValid() bool {
	switch s {
	case QuestAvailable, QuestActive, QuestCompleted, QuestFailed:
		return true
	}
	return false
}

const (
	MinPhase = 0
	MaxPhase = 4

	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Validationf("%s is required", field)
	}
	return nil
}

type Session struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Notes       string        `json:"notes"`
	Status      SessionStatus `json:"status"`
	ScheduledAt *time.Time    `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type SessionInput struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Notes       *string        `json:"notes"`
	Status      *SessionStatus `json:"status"`
	ScheduledAt *time.Time     `json:"scheduledAt"`
}

func (in SessionInput) apply(s *Session) error {
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.Notes != nil {
		s.Notes = *in.Notes
	}
	if in.Status != nil {
		s.Status = *in.Status
	}
	if in.ScheduledAt != nil {
		t := *in.ScheduledAt
		s.ScheduledAt = &t
	}

	if err := required("name", s.Name); err != nil {
		return err
	}
	if s.Status == "" {
		s.Status = SessionPlanned
	}
	if !s.Status.IsValid() {
		return errors.Validationf("unknown session status %q", s.Status)
	}
	return nil
}

// Node is one beat of a session flow graph.
type Node struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Type        NodeType  `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Phase       int       `json:"phase"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type NodeInput struct {
	Type        *NodeType `json:"type"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	X           *float64  `json:"x"`
	Y           *float64  `json:"y"`
	Phase       *int      `json:"phase"`
}

func (in NodeInput) apply(n *Node) error {
	if in.Type != nil {
		n.Type = *in.Type
	}
	if in.Title != nil {
		n.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		n.Description = *in.Description
	}
	if in.X != nil {
		n.X = *in.X
	}
	if in.Y != nil {
		n.Y = *in.Y
	}
	if in.Phase != nil {
		n.Phase = *in.Phase
	}

	if err := required("title", n.Title); err != nil {
		return err
	}
	if n.Type == "" {
		return errors.Validation("type is required")
	}
	if !n.Type.IsValid() {
		return errors.Validationf("unknown node type %q", n.Type)
	}
	n.Phase = clamp(n.Phase, MinPhase, MaxPhase)
	return nil
}

// Connection is a directed edge between two nodes of the same session.
type Connection struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	FromNodeID string    `json:"fromNodeId"`
	ToNodeID   string    `json:"toNodeId"`
	Label      string    `json:"label"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ConnectionInput struct {
	FromNodeID *string `json:"fromNodeId"`
	ToNodeID   *string `json:"toNodeId"`
	Label      *string `json:"label"`
}

func (in ConnectionInput) apply(c *Connection) error {
	if in.FromNodeID != nil {
		c.FromNodeID = *in.FromNodeID
	}
	if in.ToNodeID != nil {
		c.ToNodeID = *in.ToNodeID
	}
	if in.Label != nil {
		c.Label = *in.Label
	}

	if err := required("fromNodeId", c.FromNodeID); err != nil {
		return err
	}
	if err := required("toNodeId", c.ToNodeID); err != nil {
		return err
	}
	if c.FromNodeID == c.ToNodeID {
		return errors.Validation("a connection cannot link a node to itself")
	}
	return nil
}

type TimelineEvent struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TimelineEventInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Type        *EventType `json:"type"`
	Order       *int       `json:"order"`
}

func (in TimelineEventInput) apply(e *TimelineEvent) error {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Type != nil {
		e.Type = *in.Type
	}
	if in.Order != nil {
		e.Order = *in.Order
	}

	if err := required("title", e.Title); err != nil {
		return err
	}
	if e.Type == "" {
		e.Type = EventStory
	}
	if !e.Type.IsValid() {
		return errors.Validationf("unknown timeline event type %q", e.Type)
	}
	return nil
}

type Scenario struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ThreatLevel int            `json:"threatLevel"`
	Status      ScenarioStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type ScenarioInput struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	ThreatLevel *int            `json:"threatLevel"`
	Status      *ScenarioStatus `json:"status"`
}

func (in ScenarioInput) apply(s *Scenario) error {
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.ThreatLevel != nil {
		s.ThreatLevel = *in.ThreatLevel
	}
	if in.Status != nil {
		s.Status = *in.Status
	}

	if err := required("name", s.Name); err != nil {
		return err
	}
	if s.Status == "" {
		s.Status = ScenarioDraft
	}
	if !s.Status.IsValid() {
		return errors.Validationf("unknown scenario status %q", s.Status)
	}
	s.ThreatLevel = mapeditor.ClampThreat(s.ThreatLevel)
	return nil
}

// Region is a named area of a scenario. Its type uses the map's city classification.
type Region struct {
	ID                 string             `json:"id"`
	ScenarioID         string             `json:"scenarioId"`
	Name               string             `json:"name"`
	Type               mapeditor.CityType `json:"type"`
	ThreatLevel        int                `json:"threatLevel"`
	ControllingFaction string             `json:"controllingFaction"`
	Description        string             `json:"description"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type RegionInput struct {
	Name               *string             `json:"name"`
	Type               *mapeditor.CityType `json:"type"`
	ThreatLevel        *int                `json:"threatLevel"`
	ControllingFaction *string             `json:"controllingFaction"`
	Description        *string             `json:"description"`
}

func (in RegionInput) apply(r *Region) error {
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		r.Type = *in.Type
	}
	if in.ThreatLevel != nil {
		r.ThreatLevel = *in.ThreatLevel
	}
	if in.ControllingFaction != nil {
		r.ControllingFaction = *in.ControllingFaction
	}
	if in.Description != nil {
		r.Description = *in.Description
	}

	if err := required("name", r.Name); err != nil {
		return err
	}
	if r.Type == "" {
		r.Type = mapeditor.CityTypeSettlement
	}
	if !r.Type.IsValid() {
		return errors.Validationf("unknown region type %q", r.Type)
	}
	r.ThreatLevel = mapeditor.ClampThreat(r.ThreatLevel)
	return nil
}

// ScenarioSession links a session into a scenario. Each pair is linked at most once.
type ScenarioSession struct {
	ID         string    `json:"id"`
	ScenarioID string    `json:"scenarioId"`
	SessionID  string    `json:"sessionId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type NPC struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Role        string      `json:"role"`
	Faction     string      `json:"faction"`
	Disposition Disposition `json:"disposition"`
	ThreatLevel int         `json:"threatLevel"`
	RegionID    string      `json:"regionId,omitempty"`
	Notes       string      `json:"notes"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NPCInput updates an NPC. An empty RegionID clears the region link.
type NPCInput struct {
	Name        *string      `json:"name"`
	Role        *string      `json:"role"`
	Faction     *string      `json:"faction"`
	Disposition *Disposition `json:"disposition"`
	ThreatLevel *int         `json:"threatLevel"`
	RegionID    *string      `json:"regionId"`
	Notes       *string      `json:"notes"`
}

func (in NPCInput) apply(n *NPC) error {
	if in.Name != nil {
		n.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		n.Role = *in.Role
	}
	if in.Faction != nil {
		n.Faction = *in.Faction
	}
	if in.Disposition != nil {
		n.Disposition = *in.Disposition
	}
	if in.ThreatLevel != nil {
		n.ThreatLevel = *in.ThreatLevel
	}
	if in.RegionID != nil {
		n.RegionID = strings.TrimSpace(*in.RegionID)
	}
	if in.Notes != nil {
		n.Notes = *in.Notes
	}

	if err := required("name", n.Name); err != nil {
		return err
	}
	if n.Disposition == "" {
		n.Disposition = DispositionNeutral
	}
	if !n.Disposition.IsValid() {
		return errors.Validationf("unknown disposition %q", n.Disposition)
	}
	n.ThreatLevel = mapeditor.ClampThreat(n.ThreatLevel)
	return nil
}

type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      QuestStatus `json:"status"`
	Priority    int         `json:"priority"`
	GiverID     string      `json:"giverId,omitempty"`
	RegionID    string      `json:"regionId,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// QuestInput updates a quest. Empty GiverID or RegionID clears that link.
type QuestInput struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *QuestStatus `json:"status"`
	Priority    *int         `json:"priority"`
	GiverID     *string      `json:"giverId"`
	RegionID    *string      `json:"regionId"`
}

func (in QuestInput) apply(q *Quest) error {
	if in.Title != nil {
		q.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		q.Description = *in.Description
	}
	if in.Status != nil {
		q.Status = *in.Status
	}
	if in.Priority != nil {
		q.Priority = *in.Priority
	}
	if in.GiverID != nil {
		q.GiverID = strings.TrimSpace(*in.GiverID)
	}
	if in.RegionID != nil {
		q.RegionID = strings.TrimSpace(*in.RegionID)
	}

	if err := required("title", q.Title); err != nil {
		return err
	}
	if q.Status == "" {
		q.Status = QuestAvailable
	}
	if !q.Status.IsValid() {
		return errors.Validationf("unknown quest status %q", q.Status)
	}
	q.Priority = clamp(q.Priority, MinPriority, MaxPriority)
	return nil
}
