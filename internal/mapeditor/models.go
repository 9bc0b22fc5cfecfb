package mapeditor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"campaign-server/internal/shared/errors"
)

type CityType string

const (
	CityTypeCity       CityType = "city"
	CityTypeSettlement CityType = "settlement"
	CityTypeWasteland  CityType = "wasteland"
	CityTypeFortress   CityType = "fortress"
	CityTypeTradeHub   CityType = "trade_hub"
	CityTypeIndustrial CityType = "industrial"
)

var CityTypes = []CityType{
	CityTypeCity,
	CityTypeSettlement,
	CityTypeWasteland,
	CityTypeFortress,
	CityTypeTradeHub,
	CityTypeIndustrial,
}

func (t CityType) IsValid() bool {
	for _, known := range CityTypes {
		if t == known {
			return true
		}
	}
	return false
}

type PoliticalStance string

const (
	StanceHostile  PoliticalStance = "hostile"
	StanceNeutral  PoliticalStance = "neutral"
	StanceFriendly PoliticalStance = "friendly"
	StanceAllied   PoliticalStance = "allied"
	StanceUnknown  PoliticalStance = "unknown"
)

func (p PoliticalStance) IsValid() bool {
	switch p {
	case StanceHostile, StanceNeutral, StanceFriendly, StanceAllied, StanceUnknown:
		return true
	}
	return false
}

const (
	MinThreatLevel = 1
	MaxThreatLevel = 5
)

// ClampThreat forces a threat level into [MinThreatLevel, MaxThreatLevel].
func ClampThreat(level int) int {
	if level < MinThreatLevel {
		return MinThreatLevel
	}
	if level > MaxThreatLevel {
		return MaxThreatLevel
	}
	return level
}

type metaKind uint8

const (
	metaString metaKind = iota + 1
	metaNumber
	metaBool
)

// MetaValue is a primitive metadata value: a string, a number or a bool.
// Objects, arrays and null are rejected when decoding.
type MetaValue struct {
	kind metaKind
	str  string
	num  float64
	flag bool
}

func StringValue(s string) MetaValue { return MetaValue{kind: metaString, str: s} }

func NumberValue(n float64) MetaValue { return MetaValue{kind: metaNumber, num: n} }

func BoolValue(b bool) MetaValue { return MetaValue{kind: metaBool, flag: b} }

func (v MetaValue) IsZero() bool { return v.kind == 0 }

func (v MetaValue) AsString() (string, bool) { return v.str, v.kind == metaString }

func (v MetaValue) AsNumber() (float64, bool) { return v.num, v.kind == metaNumber }

func (v MetaValue) AsBool() (bool, bool) { return v.flag, v.kind == metaBool }

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case metaString:
		return json.Marshal(v.str)
	case metaNumber:
		return json.Marshal(v.num)
	case metaBool:
		return json.Marshal(v.flag)
	default:
		return nil, fmt.Errorf("metadata value is empty")
	}
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("metadata value is empty")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '{', '[', 'n':
		return fmt.Errorf("metadata values must be strings, numbers or booleans")
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
	}
	return nil
}

// City is a placed map location.
type City struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	X               float64              `json:"x"`
	Y               float64              `json:"y"`
	Type            CityType             `json:"type"`
	ThreatLevel     int                  `json:"threatLevel"`
	Population      int                  `json:"population,omitempty"`
	Faction         string               `json:"faction,omitempty"`
	Resources       []string             `json:"resources,omitempty"`
	PoliticalStance PoliticalStance      `json:"politicalStance,omitempty"`
	Description     string               `json:"description,omitempty"`
	Metadata        map[string]MetaValue `json:"metadata,omitempty"`
}

func (c City) clone() City {
	cp := c
	if c.Resources != nil {
		cp.Resources = append([]string(nil), c.Resources...)
	}
	if c.Metadata != nil {
		cp.Metadata = make(map[string]MetaValue, len(c.Metadata))
		for k, v := range c.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}

// normalizeCity fills defaults and clamps ranges. Empty collections become nil
// so a serialize/deserialize round trip is lossless.
func normalizeCity(c *City) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Type == "" {
		c.Type = CityTypeCity
	}
	if !c.Type.IsValid() {
		return errors.Validationf("unknown city type %q", c.Type)
	}
	if c.PoliticalStance == "" {
		c.PoliticalStance = StanceNeutral
	}
	if !c.PoliticalStance.IsValid() {
		return errors.Validationf("unknown political stance %q", c.PoliticalStance)
	}
	if !isFinite(c.X) || !isFinite(c.Y) {
		return errors.Validation("city position must be finite")
	}
	if c.Population < 0 {
		return errors.Validation("population must not be negative")
	}
	c.ThreatLevel = ClampThreat(c.ThreatLevel)
	if len(c.Resources) == 0 {
		c.Resources = nil
	}
	if len(c.Metadata) == 0 {
		c.Metadata = nil
	}
	for k, v := range c.Metadata {
		if v.IsZero() {
			return errors.Validationf("metadata %q has no value", k)
		}
	}
	return nil
}

// CityPatch carries a partial city update. Nil fields are left untouched.
type CityPatch struct {
	Name            *string              `json:"name,omitempty"`
	X               *float64             `json:"x,omitempty"`
	Y               *float64             `json:"y,omitempty"`
	Type            *CityType            `json:"type,omitempty"`
	ThreatLevel     *int                 `json:"threatLevel,omitempty"`
	Population      *int                 `json:"population,omitempty"`
	Faction         *string              `json:"faction,omitempty"`
	Resources       *[]string            `json:"resources,omitempty"`
	PoliticalStance *PoliticalStance     `json:"politicalStance,omitempty"`
	Description     *string              `json:"description,omitempty"`
	Metadata        map[string]MetaValue `json:"metadata,omitempty"`
}

func (p CityPatch) apply(c *City) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.X != nil {
		c.X = *p.X
	}
	if p.Y != nil {
		c.Y = *p.Y
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.ThreatLevel != nil {
		c.ThreatLevel = *p.ThreatLevel
	}
	if p.Population != nil {
		c.Population = *p.Population
	}
	if p.Faction != nil {
		c.Faction = *p.Faction
	}
	if p.Resources != nil {
		c.Resources = append([]string(nil), (*p.Resources)...)
	}
	if p.PoliticalStance != nil {
		c.PoliticalStance = *p.PoliticalStance
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Metadata != nil {
		c.Metadata = make(map[string]MetaValue, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
}

// ViewState is one complete snapshot of the map display and its cities.
type ViewState struct {
	Cities      []City  `json:"cities"`
	Zoom        float64 `json:"zoom"`
	PanX        float64 `json:"panX"`
	PanY        float64 `json:"panY"`
	GridVisible bool    `json:"gridVisible"`
	GridSize    int     `json:"gridSize"`
	SnapToGrid  bool    `json:"snapToGrid"`
	MapImage    string  `json:"mapImage,omitempty"`
}

func DefaultViewState(gridSize int) ViewState {
	return ViewState{
		Cities:      []City{},
		Zoom:        1,
		GridVisible: true,
		GridSize:    gridSize,
		SnapToGrid:  false,
	}
}

// Clone returns a deep copy; history entries never share memory with the live state.
func (s ViewState) Clone() ViewState {
	cp := s
	cp.Cities = make([]City, len(s.Cities))
	for i, c := range s.Cities {
		cp.Cities[i] = c.clone()
	}
	return cp
}

func (s ViewState) indexOf(id string) int {
	for i := range s.Cities {
		if s.Cities[i].ID == id {
			return i
		}
	}
	return -1
}

func (s ViewState) Viewport() Viewport {
	return Viewport{Zoom: s.Zoom, PanX: s.PanX, PanY: s.PanY}
}

func (s ViewState) Grid() Grid {
	return Grid{Size: s.GridSize, Enabled: s.SnapToGrid}
}

// normalizeState checks the invariants every committed state must satisfy.
func normalizeState(s *ViewState) error {
	if s.GridSize <= 0 {
		return errors.Validationf("grid size must be positive (got %d)", s.GridSize)
	}
	if !isFinite(s.PanX) || !isFinite(s.PanY) {
		return errors.Validation("pan offset must be finite")
	}
	s.Zoom = ClampZoom(s.Zoom)
	if s.Cities == nil {
		s.Cities = []City{}
	}

	seen := make(map[string]struct{}, len(s.Cities))
	for i := range s.Cities {
		c := &s.Cities[i]
		if c.ID == "" {
			return errors.Validationf("city at index %d has no id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return errors.Validationf("duplicate city id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		if err := normalizeCity(c); err != nil {
			return err
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
