package campaign

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type tables struct {
	sessions    map[string]Session
	nodes       map[string]Node
	connections map[string]Connection
	timeline    map[string]TimelineEvent
	scenarios   map[string]Scenario
	regions     map[string]Region
	links       map[string]ScenarioSession
	npcs        map[string]NPC
	quests      map[string]Quest
}

func newTables() tables {
	return tables{
		sessions:    map[string]Session{},
		nodes:       map[string]Node{},
		connections: map[string]Connection{},
		timeline:    map[string]TimelineEvent{},
		scenarios:   map[string]Scenario{},
		regions:     map[string]Region{},
		links:       map[string]ScenarioSession{},
		npcs:        map[string]NPC{},
		quests:      map[string]Quest{},
	}
}

func cloneTable[T any](src map[string]T, cloneFn func(T) T) map[string]T {
	dst := make(map[string]T, len(src))
	for k, v := range src {
		if cloneFn != nil {
			v = cloneFn(v)
		}
		dst[k] = v
	}
	return dst
}

func cloneSession(s Session) Session {
	if s.ScheduledAt != nil {
		t := *s.ScheduledAt
		s.ScheduledAt = &t
	}
	return s
}

// clone copies every table. Records are plain values apart from Session's
// scheduled time, so copying the maps is a deep copy.
func (t tables) clone() tables {
	return tables{
		sessions:    cloneTable(t.sessions, cloneSession),
		nodes:       cloneTable[Node](t.nodes, nil),
		connections: cloneTable[Connection](t.connections, nil),
		timeline:    cloneTable[TimelineEvent](t.timeline, nil),
		scenarios:   cloneTable[Scenario](t.scenarios, nil),
		regions:     cloneTable[Region](t.regions, nil),
		links:       cloneTable[ScenarioSession](t.links, nil),
		npcs:        cloneTable[NPC](t.npcs, nil),
		quests:      cloneTable[Quest](t.quests, nil),
	}
}

// Store is the in-memory campaign record store. Writers run one at a time on
// a private copy of every table that replaces the live tables only when the
// whole transaction succeeds, so cascades never apply partially.
type Store struct {
	mu     sync.RWMutex
	state  tables
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		state:  newTables(),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.With("component", "campaign_store"),
	}
}

// Tx gives a transaction access to the tables. Inside View it must not mutate.
type Tx struct {
	state *tables
	now   time.Time
	newID func() string
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	tx := &Tx{state: &next, now: s.now(), newID: s.newID}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&Tx{state: &s.state, now: s.now(), newID: s.newID})
}

// Counts reports the number of records per table.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		"sessions":         len(s.state.sessions),
		"nodes":            len(s.state.nodes),
		"connections":      len(s.state.connections),
		"timelineEvents":   len(s.state.timeline),
		"scenarios":        len(s.state.scenarios),
		"regions":          len(s.state.regions),
		"scenarioSessions": len(s.state.links),
		"npcs":             len(s.state.npcs),
		"quests":           len(s.state.quests),
	}
}

// sortedValues lists a table oldest first, ties broken by id.
func sortedValues[T any](m map[string]T, created func(T) time.Time, id func(T) string, keep func(T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := created(out[i]), created(out[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(out[i]) < id(out[j])
	})
	return out
}
