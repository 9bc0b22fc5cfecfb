package campaign

import (
	"time"

	"campaign-server/internal/shared/errors"
)

func (tx *Tx) checkRegionRef(regionID string) error {
	if regionID == "" {
		return nil
	}
	if _, ok := tx.state.regions[regionID]; !ok {
		return errors.ReferentialIntegrityf("region %s does not exist", regionID)
	}
	return nil
}

func (tx *Tx) NPC(id string) (NPC, error) {
	n, ok := tx.state.npcs[id]
	if !ok {
		return NPC{}, errors.NotFoundf("npc %s not found", id)
	}
	return n, nil
}

// NPCs lists NPCs, optionally only those in regionID.
func (tx *Tx) NPCs(regionID string) []NPC {
	return sortedValues(tx.state.npcs,
		func(n NPC) time.Time { return n.CreatedAt },
		func(n NPC) string { return n.ID },
		func(n NPC) bool { return regionID == "" || n.RegionID == regionID })
}

func (tx *Tx) CreateNPC(in NPCInput) (NPC, error) {
	n := NPC{ID: tx.newID(), CreatedAt: tx.now, UpdatedAt: tx.now}
	if err := in.apply(&n); err != nil {
		return NPC{}, err
	}
	if err := tx.checkRegionRef(n.RegionID); err != nil {
		return NPC{}, err
	}
	tx.state.npcs[n.ID] = n
	return n, nil
}

func (tx *Tx) UpdateNPC(id string, in NPCInput) (NPC, error) {
	n, err := tx.NPC(id)
	if err != nil {
		return NPC{}, err
	}
	if err := in.apply(&n); err != nil {
		return NPC{}, err
	}
	if err := tx.checkRegionRef(n.RegionID); err != nil {
		return NPC{}, err
	}
	n.UpdatedAt = tx.now
	tx.state.npcs[id] = n
	return n, nil
}

// DeleteNPC removes the NPC and clears it as giver on its quests. It returns
// how many quests were unlinked.
func (tx *Tx) DeleteNPC(id string) (int, error) {
	if _, ok := tx.state.npcs[id]; !ok {
		return 0, errors.NotFoundf("npc %s not found", id)
	}
	unlinked := 0
	for qid, q := range tx.state.quests {
		if q.GiverID == id {
			q.GiverID = ""
			q.UpdatedAt = tx.now
			tx.state.quests[qid] = q
			unlinked++
		}
	}
	delete(tx.state.npcs, id)
	return unlinked, nil
}

func (tx *Tx) Quest(id string) (Quest, error) {
	q, ok := tx.state.quests[id]
	if !ok {
		return Quest{}, errors.NotFoundf("quest %s not found", id)
	}
	return q, nil
}

// Quests lists quests, optionally filtered by status.
func (tx *Tx) Quests(status QuestStatus) []Quest {
	return sortedValues(tx.state.quests,
		func(q Quest) time.Time { return q.CreatedAt },
		func(q Quest) string { return q.ID },
		func(q Quest) bool { return status == "" || q.Status == status })
}

func (tx *Tx) checkQuestRefs(q Quest) error {
	if q.GiverID != "" {
		if _, ok := tx.state.npcs[q.GiverID]; !ok {
			return errors.ReferentialIntegrityf("npc %s does not exist", q.GiverID)
		}
	}
	return tx.checkRegionRef(q.RegionID)
}

func (tx *Tx) CreateQuest(in QuestInput) (Quest, error) {
	q := Quest{ID: tx.newID(), CreatedAt: tx.now, UpdatedAt: tx.now}
	if in.Priority == nil {
		q.Priority = DefaultPriority
	}
	if err := in.apply(&q); err != nil {
		return Quest{}, err
	}
	if err := tx.checkQuestRefs(q); err != nil {
		return Quest{}, err
	}
	tx.state.quests[q.ID] = q
	return q, nil
}

func (tx *Tx) UpdateQuest(id string, in QuestInput) (Quest, error) {
	q, err := tx.Quest(id)
	if err != nil {
		return Quest{}, err
	}
	if err := in.apply(&q); err != nil {
		return Quest{}, err
	}
	if err := tx.checkQuestRefs(q); err != nil {
		return Quest{}, err
	}
	q.UpdatedAt = tx.now
	tx.state.quests[id] = q
	return q, nil
}

func (tx *Tx) DeleteQuest(id string) error {
	if _, ok := tx.state.quests[id]; !ok {
		return errors.NotFoundf("quest %s not found", id)
	}
	delete(tx.state.quests, id)
	return nil
}
