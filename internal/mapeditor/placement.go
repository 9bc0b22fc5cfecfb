package mapeditor

import (
	"fmt"
	"math"
)

const DefaultMinDistance = 50.0

type PlacementResult struct {
	Valid      bool    `json:"valid"`
	Reason     string  `json:"reason,omitempty"`
	ConflictID string  `json:"conflictId,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
}

// ValidatePlacement reports the first city closer than minDistance to (x, y).
// The city with excludeID is ignored so a city never conflicts with itself
// while being moved. It never mutates anything; enforcing the result is up to
// the caller.
func ValidatePlacement(cities []City, x, y, minDistance float64, excludeID string) PlacementResult {
	for _, c := range cities {
		if excludeID != "" && c.ID == excludeID {
			continue
		}
		d := math.Hypot(c.X-x, c.Y-y)
		if d < minDistance {
			name := c.Name
			if name == "" {
				name = c.ID
			}
			return PlacementResult{
				Valid:      false,
				Reason:     fmt.Sprintf("too close to %s (%.1f < %.1f)", name, d, minDistance),
				ConflictID: c.ID,
				Distance:   d,
			}
		}
	}
	return PlacementResult{Valid: true}
}
