// internal/models/zone.go
package models

// Zone names one of the ordered card collections a player owns.
type Zone string

const (
	ZoneDeck      Zone = "deck"
	ZoneHand      Zone = "hand"
	ZoneDiscard   Zone = "discard"
	ZoneInk       Zone = "ink"
	ZoneSummoning Zone = "summoning" // played characters that are still drying
	ZoneReady     Zone = "ready"
	ZoneMystery   Zone = "mystery" // one face-down card set aside at game start
)

// AllZones lists every zone in display order.
var AllZones = []Zone{
	ZoneDeck,
	ZoneHand,
	ZoneDiscard,
	ZoneInk,
	ZoneSummoning,
	ZoneReady,
	ZoneMystery,
}

// Valid reports whether z is one of the known zones.
func (z Zone) Valid() bool {
	for _, known := range AllZones {
		if z == known {
			return true
		}
	}
	return false
}

// ClearsExert reports whether a card entering this zone leaves play and is readied.
func (z Zone) ClearsExert() bool {
	switch z {
	case ZoneHand, ZoneDeck, ZoneDiscard, ZoneInk:
		return true
	default:
		return false
	}
}
