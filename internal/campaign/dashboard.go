package campaign

import (
	"sort"

	"campaign-server/internal/mapeditor"
)

const dashboardTopN = 5

type ThreatLevelCount struct {
	Level   int `json:"level"`
	Regions int `json:"regions"`
	NPCs    int `json:"npcs"`
}

// ThreatDashboard summarises danger across every scenario.
type ThreatDashboard struct {
	Levels         []ThreatLevelCount `json:"levels"`
	HighestRegions []Region           `json:"highestThreatRegions"`
	HostileNPCs    []NPC              `json:"hostileNpcs"`
	ActiveQuests   []Quest            `json:"activeQuests"`
}

func (tx *Tx) ThreatDashboard() ThreatDashboard {
	d := ThreatDashboard{
		Levels:         make([]ThreatLevelCount, 0, mapeditor.MaxThreatLevel),
		HighestRegions: []Region{},
		HostileNPCs:    []NPC{},
		ActiveQuests:   []Quest{},
	}
	for level := mapeditor.MinThreatLevel; level <= mapeditor.MaxThreatLevel; level++ {
		d.Levels = append(d.Levels, ThreatLevelCount{Level: level})
	}

	for _, r := range tx.state.regions {
		d.Levels[mapeditor.ClampThreat(r.ThreatLevel)-1].Regions++
		d.HighestRegions = append(d.HighestRegions, r)
	}
	for _, n := range tx.state.npcs {
		d.Levels[mapeditor.ClampThreat(n.ThreatLevel)-1].NPCs++
		if n.Disposition == DispositionHostile {
			d.HostileNPCs = append(d.HostileNPCs, n)
		}
	}
	d.ActiveQuests = append(d.ActiveQuests, tx.Quests(QuestActive)...)

	sort.Slice(d.HighestRegions, func(i, j int) bool {
		a, b := d.HighestRegions[i], d.HighestRegions[j]
		if a.ThreatLevel != b.ThreatLevel {
			return a.ThreatLevel > b.ThreatLevel
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	if len(d.HighestRegions) > dashboardTopN {
		d.HighestRegions = d.HighestRegions[:dashboardTopN]
	}

	sort.Slice(d.HostileNPCs, func(i, j int) bool {
		a, b := d.HostileNPCs[i], d.HostileNPCs[j]
		if a.ThreatLevel != b.ThreatLevel {
			return a.ThreatLevel > b.ThreatLevel
		}
		return a.ID < b.ID
	})
	sort.SliceStable(d.ActiveQuests, func(i, j int) bool {
		return d.ActiveQuests[i].Priority > d.ActiveQuests[j].Priority
	})
	return d
}
