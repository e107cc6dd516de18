// internal/cards/descriptor.go
package cards

import (
	"math"
	"strconv"
	"strings"

	"github.com/jason-s-yu/inkwell/internal/models"
)

// PlaceholderImage is shown for cards that could not be resolved.
const PlaceholderImage = "https://via.placeholder.com/200x280/2c3e50/ecf0f1?text=Card"

// NormalizeDescriptor maps a raw card API record onto the fixed descriptor
// schema. Loosely typed fields are coerced once here.
func NormalizeDescriptor(raw map[string]interface{}, entry DeckEntry) models.Descriptor {
	d := models.Descriptor{
		Name:           stringField(raw, "Name"),
		Subtitle:       entry.Subtitle,
		FullName:       entry.FullName(),
		Cost:           ParseCost(raw["Cost"]),
		Inkwell:        ParseInkwell(raw["Inkwell"]),
		Type:           stringField(raw, "Type"),
		ImageURL:       stringField(raw, "Image"),
		Classification: stringField(raw, "Classifications"),
		Rarity:         stringField(raw, "Rarity"),
		Set:            stringField(raw, "Set_Name"),
		CardNum:        ParseCost(raw["Card_Num"]),
	}
	if d.Name == "" {
		d.Name = entry.Name
	}
	if d.ImageURL == "" {
		d.ImageURL = stringField(raw, "image")
	}
	if d.ImageURL == "" {
		d.ImageURL = PlaceholderImage
	}
	return d
}

// Placeholder builds the descriptor used when a card cannot be resolved.
// It costs nothing, cannot be inked and plays like a character.
func Placeholder(entry DeckEntry) models.Descriptor {
	return models.Descriptor{
		Name:        entry.Name,
		Subtitle:    entry.Subtitle,
		FullName:    entry.FullName(),
		ImageURL:    PlaceholderImage,
		Placeholder: true,
	}
}

// ParseInkwell accepts a bool, a number equal to 1, or one of "true", "yes", "1".
func ParseInkwell(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x == 1
	case int:
		return x == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

// ParseCost reads a non-negative integer from a number or numeric string; anything else is 0.
func ParseCost(v interface{}) int {
	var n int
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		n = int(x)
	case int:
		n = x
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		n = parsed
	}
	return max(n, 0)
}

func stringField(raw map[string]interface{}, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
