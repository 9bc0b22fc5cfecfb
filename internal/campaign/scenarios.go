package campaign

import (
	"time"

	"campaign-server/internal/shared/errors"
)

func (tx *Tx) Scenario(id string) (Scenario, error) {
	s, ok := tx.state.scenarios[id]
	if !ok {
		return Scenario{}, errors.NotFoundf("scenario %s not found", id)
	}
	return s, nil
}

func (tx *Tx) Scenarios() []Scenario {
	return sortedValues(tx.state.scenarios,
		func(s Scenario) time.Time { return s.CreatedAt },
		func(s Scenario) string { return s.ID },
		nil)
}

func (tx *Tx) CreateScenario(in ScenarioInput) (Scenario, error) {
	s := Scenario{ID: tx.newID(), CreatedAt: tx.now, UpdatedAt: tx.now}
	if err := in.apply(&s); err != nil {
		return Scenario{}, err
	}
	tx.state.scenarios[s.ID] = s
	return s, nil
}

func (tx *Tx) UpdateScenario(id string, in ScenarioInput) (Scenario, error) {
	s, err := tx.Scenario(id)
	if err != nil {
		return Scenario{}, err
	}
	if err := in.apply(&s); err != nil {
		return Scenario{}, err
	}
	s.UpdatedAt = tx.now
	tx.state.scenarios[id] = s
	return s, nil
}

type ScenarioCascade struct {
	Regions  int `json:"regions"`
	Links    int `json:"sessionLinks"`
	Unlinked int `json:"unlinkedRecords"`
}

// DeleteScenario removes the scenario, its regions and its session links.
// NPCs and quests in those regions lose their region reference.
func (tx *Tx) DeleteScenario(id string) (ScenarioCascade, error) {
	if _, ok := tx.state.scenarios[id]; !ok {
		return ScenarioCascade{}, errors.NotFoundf("scenario %s not found", id)
	}

	var c ScenarioCascade
	for rid, r := range tx.state.regions {
		if r.ScenarioID != id {
			continue
		}
		c.Unlinked += tx.unlinkRegion(rid)
		delete(tx.state.regions, rid)
		c.Regions++
	}
	for lid, l := range tx.state.links {
		if l.ScenarioID == id {
			delete(tx.state.links, lid)
			c.Links++
		}
	}
	delete(tx.state.scenarios, id)
	return c, nil
}

func (tx *Tx) Region(id string) (Region, error) {
	r, ok := tx.state.regions[id]
	if !ok {
		return Region{}, errors.NotFoundf("region %s not found", id)
	}
	return r, nil
}

func (tx *Tx) RegionsByScenario(scenarioID string) ([]Region, error) {
	if _, err := tx.Scenario(scenarioID); err != nil {
		return nil, err
	}
	return sortedValues(tx.state.regions,
		func(r Region) time.Time { return r.CreatedAt },
		func(r Region) string { return r.ID },
		func(r Region) bool { return r.ScenarioID == scenarioID }), nil
}

func (tx *Tx) CreateRegion(scenarioID string, in RegionInput) (Region, error) {
	if scenarioID == "" {
		return Region{}, errors.Validation("scenarioId is required")
	}
	if _, ok := tx.state.scenarios[scenarioID]; !ok {
		return Region{}, errors.ReferentialIntegrityf("scenario %s does not exist", scenarioID)
	}
	r := Region{ID: tx.newID(), ScenarioID: scenarioID, CreatedAt: tx.now, UpdatedAt: tx.now}
	if err := in.apply(&r); err != nil {
		return Region{}, err
	}
	tx.state.regions[r.ID] = r
	return r, nil
}

func (tx *Tx) UpdateRegion(id string, in RegionInput) (Region, error) {
	r, err := tx.Region(id)
	if err != nil {
		return Region{}, err
	}
	if err := in.apply(&r); err != nil {
		return Region{}, err
	}
	r.UpdatedAt = tx.now
	tx.state.regions[id] = r
	return r, nil
}

// DeleteRegion removes the region and clears it from NPCs and quests. It
// returns how many records were unlinked.
func (tx *Tx) DeleteRegion(id string) (int, error) {
	if _, ok := tx.state.regions[id]; !ok {
		return 0, errors.NotFoundf("region %s not found", id)
	}
	unlinked := tx.unlinkRegion(id)
	delete(tx.state.regions, id)
	return unlinked, nil
}

func (tx *Tx) unlinkRegion(regionID string) int {
	n := 0
	for id, npc := range tx.state.npcs {
		if npc.RegionID == regionID {
			npc.RegionID = ""
			npc.UpdatedAt = tx.now
			tx.state.npcs[id] = npc
			n++
		}
	}
	for id, q := range tx.state.quests {
		if q.RegionID == regionID {
			q.RegionID = ""
			q.UpdatedAt = tx.now
			tx.state.quests[id] = q
			n++
		}
	}
	return n
}

func (tx *Tx) LinksByScenario(scenarioID string) ([]ScenarioSession, error) {
	if _, err := tx.Scenario(scenarioID); err != nil {
		return nil, err
	}
	return sortedValues(tx.state.links,
		func(l ScenarioSession) time.Time { return l.CreatedAt },
		func(l ScenarioSession) string { return l.ID },
		func(l ScenarioSession) bool { return l.ScenarioID == scenarioID }), nil
}

// LinkSession attaches a session to a scenario. Linking the same pair twice is a conflict.
func (tx *Tx) LinkSession(scenarioID, sessionID string) (ScenarioSession, error) {
	if scenarioID == "" || sessionID == "" {
		return ScenarioSession{}, errors.Validation("scenarioId and sessionId are required")
	}
	if _, ok := tx.state.scenarios[scenarioID]; !ok {
		return ScenarioSession{}, errors.ReferentialIntegrityf("scenario %s does not exist", scenarioID)
	}
	if _, ok := tx.state.sessions[sessionID]; !ok {
		return ScenarioSession{}, errors.ReferentialIntegrityf("session %s does not exist", sessionID)
	}
	for _, l := range tx.state.links {
		if l.ScenarioID == scenarioID && l.SessionID == sessionID {
			return ScenarioSession{}, errors.Conflictf("session %s is already linked to scenario %s", sessionID, scenarioID)
		}
	}

	l := ScenarioSession{ID: tx.newID(), ScenarioID: scenarioID, SessionID: sessionID, CreatedAt: tx.now}
	tx.state.links[l.ID] = l
	return l, nil
}

func (tx *Tx) UnlinkSession(linkID string) error {
	if _, ok := tx.state.links[linkID]; !ok {
		return errors.NotFoundf("scenario link %s not found", linkID)
	}
	delete(tx.state.links, linkID)
	return nil
}
