package campaign

import (
	"sort"
	"time"

	"campaign-server/internal/shared/errors"
)

func (tx *Tx) Session(id string) (Session, error) {
	s, ok := tx.state.sessions[id]
	if !ok {
		return Session{}, errors.NotFoundf("session %s not found", id)
	}
	return cloneSession(s), nil
}

func (tx *Tx) Sessions() []Session {
	out := sortedValues(tx.state.sessions,
		func(s Session) time.Time { return s.CreatedAt },
		func(s Session) string { return s.ID },
		nil)
	for i := range out {
		out[i] = cloneSession(out[i])
	}
	return out
}

func (tx *Tx) CreateSession(in SessionInput) (Session, error) {
	s := Session{ID: tx.newID(), CreatedAt: tx.now, UpdatedAt: tx.now}
	if err := in.apply(&s); err != nil {
		return Session{}, err
	}
	tx.state.sessions[s.ID] = s
	return cloneSession(s), nil
}

func (tx *Tx) UpdateSession(id string, in SessionInput) (Session, error) {
	s, err := tx.Session(id)
	if err != nil {
		return Session{}, err
	}
	if err := in.apply(&s); err != nil {
		return Session{}, err
	}
	s.UpdatedAt = tx.now
	tx.state.sessions[id] = s
	return cloneSession(s), nil
}

// SessionCascade counts what deleting a session removed with it.
type SessionCascade struct {
	Nodes          int `json:"nodes"`
	Connections    int `json:"connections"`
	TimelineEvents int `json:"timelineEvents"`
	Links          int `json:"scenarioLinks"`
}

// DeleteSession removes the session with its nodes, connections, timeline
// events and scenario links.
func (tx *Tx) DeleteSession(id string) (SessionCascade, error) {
	if _, ok := tx.state.sessions[id]; !ok {
		return SessionCascade{}, errors.NotFoundf("session %s not found", id)
	}

	var c SessionCascade
	for cid, conn := range tx.state.connections {
		if conn.SessionID == id {
			delete(tx.state.connections, cid)
			c.Connections++
		}
	}
	for nid, n := range tx.state.nodes {
		if n.SessionID == id {
			delete(tx.state.nodes, nid)
			c.Nodes++
		}
	}
	for eid, e := range tx.state.timeline {
		if e.SessionID == id {
			delete(tx.state.timeline, eid)
			c.TimelineEvents++
		}
	}
	for lid, l := range tx.state.links {
		if l.SessionID == id {
			delete(tx.state.links, lid)
			c.Links++
		}
	}
	delete(tx.state.sessions, id)
	return c, nil
}

func (tx *Tx) requireSession(id string) error {
	if id == "" {
		return errors.Validation("sessionId is required")
	}
	if _, ok := tx.state.sessions[id]; !ok {
		return errors.ReferentialIntegrityf("session %s does not exist", id)
	}
	return nil
}

func (tx *Tx) Node(id string) (Node, error) {
	n, ok := tx.state.nodes[id]
	if !ok {
		return Node{}, errors.NotFoundf("node %s not found", id)
	}
	return n, nil
}

func (tx *Tx) NodesBySession(sessionID string) ([]Node, error) {
	if _, err := tx.Session(sessionID); err != nil {
		return nil, err
	}
	return sortedValues(tx.state.nodes,
		func(n Node) time.Time { return n.CreatedAt },
		func(n Node) string { return n.ID },
		func(n Node) bool { return n.SessionID == sessionID }), nil
}

func (tx *Tx) CreateNode(sessionID string, in NodeInput) (Node, error) {
	if err := tx.requireSession(sessionID); err != nil {
		return Node{}, err
	}
	n := Node{ID: tx.newID(), SessionID: sessionID, CreatedAt: tx.now, UpdatedAt: tx.now}
	if err := in.apply(&n); err != nil {
		return Node{}, err
	}
	tx.state.nodes[n.ID] = n
	return n, nil
}

func (tx *Tx) UpdateNode(id string, in NodeInput) (Node, error) {
	n, err := tx.Node(id)
	if err != nil {
		return Node{}, err
	}
	if err := in.apply(&n); err != nil {
		return Node{}, err
	}
	n.UpdatedAt = tx.now
	tx.state.nodes[id] = n
	return n, nil
}

// DeleteNode removes the node and every connection touching it. It returns
// the number of connections removed.
func (tx *Tx) DeleteNode(id string) (int, error) {
	if _, ok := tx.state.nodes[id]; !ok {
		return 0, errors.NotFoundf("node %s not found", id)
	}
	removed := 0
	for cid, c := range tx.state.connections {
		if c.FromNodeID == id || c.ToNodeID == id {
			delete(tx.state.connections, cid)
			removed++
		}
	}
	delete(tx.state.nodes, id)
	return removed, nil
}

func (tx *Tx) Connection(id string) (Connection, error) {
	c, ok := tx.state.connections[id]
	if !ok {
		return Connection{}, errors.NotFoundf("connection %s not found", id)
	}
	return c, nil
}

func (tx *Tx) ConnectionsBySession(sessionID string) ([]Connection, error) {
	if _, err := tx.Session(sessionID); err != nil {
		return nil, err
	}
	return sortedValues(tx.state.connections,
		func(c Connection) time.Time { return c.CreatedAt },
		func(c Connection) string { return c.ID },
		func(c Connection) bool { return c.SessionID == sessionID }), nil
}

// checkEndpoints requires both nodes to exist and to belong to the connection's session.
func (tx *Tx) checkEndpoints(c Connection) error {
	for _, nodeID := range []string{c.FromNodeID, c.ToNodeID} {
		n, ok := tx.state.nodes[nodeID]
		if !ok {
			return errors.ReferentialIntegrityf("node %s does not exist", nodeID)
		}
		if n.SessionID != c.SessionID {
			return errors.Validationf("node %s belongs to another session", nodeID)
		}
	}
	return nil
}

func (tx *Tx) CreateConnection(sessionID string, in ConnectionInput) (Connection, error) {
	if err := tx.requireSession(sessionID); err != nil {
		return Connection{}, err
	}
	c := Connection{ID: tx.newID(), SessionID: sessionID, CreatedAt: tx.now, UpdatedAt: tx.now}
	if err := in.apply(&c); err != nil {
		return Connection{}, err
	}
	if err := tx.checkEndpoints(c); err != nil {
		return Connection{}, err
	}
	tx.state.connections[c.ID] = c
	return c, nil
}

func (tx *Tx) UpdateConnection(id string, in ConnectionInput) (Connection, error) {
	c, err := tx.Connection(id)
	if err != nil {
		return Connection{}, err
	}
	if err := in.apply(&c); err != nil {
		return Connection{}, err
	}
	if err := tx.checkEndpoints(c); err != nil {
		return Connection{}, err
	}
	c.UpdatedAt = tx.now
	tx.state.connections[id] = c
	return c, nil
}

func (tx *Tx) DeleteConnection(id string) error {
	if _, ok := tx.state.connections[id]; !ok {
		return errors.NotFoundf("connection %s not found", id)
	}
	delete(tx.state.connections, id)
	return nil
}

func (tx *Tx) TimelineEvent(id string) (TimelineEvent, error) {
	e, ok := tx.state.timeline[id]
	if !ok {
		return TimelineEvent{}, errors.NotFoundf("timeline event %s not found", id)
	}
	return e, nil
}

// Timeline lists a session's events by order, then creation time.
func (tx *Tx) Timeline(sessionID string) ([]TimelineEvent, error) {
	if _, err := tx.Session(sessionID); err != nil {
		return nil, err
	}
	events := sortedValues(tx.state.timeline,
		func(e TimelineEvent) time.Time { return e.CreatedAt },
		func(e TimelineEvent) string { return e.ID },
		func(e TimelineEvent) bool { return e.SessionID == sessionID })
	sort.SliceStable(events, func(i, j int) bool { return events[i].Order < events[j].Order })
	return events, nil
}

func (tx *Tx) nextTimelineOrder(sessionID string) int {
	next := 0
	for _, e := range tx.state.timeline {
		if e.SessionID == sessionID && e.Order >= next {
			next = e.Order + 1
		}
	}
	return next
}

// CreateTimelineEvent appends to the end of the timeline unless an order is given.
func (tx *Tx) CreateTimelineEvent(sessionID string, in TimelineEventInput) (TimelineEvent, error) {
	if err := tx.requireSession(sessionID); err != nil {
		return TimelineEvent{}, err
	}
	e := TimelineEvent{ID: tx.newID(), SessionID: sessionID, CreatedAt: tx.now, UpdatedAt: tx.now}
	if in.Order == nil {
		e.Order = tx.nextTimelineOrder(sessionID)
	}
	if err := in.apply(&e); err != nil {
		return TimelineEvent{}, err
	}
	tx.state.timeline[e.ID] = e
	return e, nil
}

func (tx *Tx) UpdateTimelineEvent(id string, in TimelineEventInput) (TimelineEvent, error) {
	e, err := tx.TimelineEvent(id)
	if err != nil {
		return TimelineEvent{}, err
	}
	if err := in.apply(&e); err != nil {
		return TimelineEvent{}, err
	}
	e.UpdatedAt = tx.now
	tx.state.timeline[id] = e
	return e, nil
}

func (tx *Tx) DeleteTimelineEvent(id string) error {
	if _, ok := tx.state.timeline[id]; !ok {
		return errors.NotFoundf("timeline event %s not found", id)
	}
	delete(tx.state.timeline, id)
	return nil
}
