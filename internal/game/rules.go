// internal/game/rules.go
package game

import "fmt"

// HouseRules defines table options that adjust the default engine behavior.
type HouseRules struct {
	OpeningHandSize    int  `json:"openingHandSize"`    // cards drawn into hand at game start
	MysteryFlipTurn    int  `json:"mysteryFlipTurn"`    // first round in which the mystery card may be flipped
	RestrictTapToOwner bool `json:"restrictTapToOwner"` // only the owner may exert, ready or damage a card
	EnforceTurnOrder   bool `json:"enforceTurnOrder"`   // ink and play only during the actor's own turn
}

// DefaultHouseRules returns the standard table setup.
// Exert, ready and damage stay open to every player, matching tabletop play
// where opponents help track damage.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		OpeningHandSize:    7,
		MysteryFlipTurn:    3,
		RestrictTapToOwner: false,
		EnforceTurnOrder:   false,
	}
}

// Update applies the rules present in newRules. Missing or nil keys keep their old value.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("invalid type for %s", key)
		}
		*field = b
		return nil
	}

	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64: // JSON numbers
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		*field = n
		return nil
	}

	if err := assignInt(&rules.OpeningHandSize, "openingHandSize", 0); err != nil {
		return err
	}
	if err := assignInt(&rules.MysteryFlipTurn, "mysteryFlipTurn", 1); err != nil {
		return err
	}
	if err := assignBool(&rules.RestrictTapToOwner, "restrictTapToOwner"); err != nil {
		return err
	}
	return assignBool(&rules.EnforceTurnOrder, "enforceTurnOrder")
}

// ParseRules returns a copy of current with the given overrides applied.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}
