// internal/game/utils.go
package game

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
	log "github.com/sirupsen/logrus"
)

// EventBytes marshals a GameEvent into JSON bytes.
// Logs a warning and returns empty JSON "{}" on marshalling error.
func EventBytes(ev GameEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warnf("Failed to marshal GameEvent type %s: %v", ev.Type, err)
		return []byte("{}")
	}
	return data
}

func parseUUID(payload map[string]interface{}, key string) (uuid.UUID, error) {
	s, _ := payload[key].(string)
	if s == "" {
		return uuid.Nil, rejectf("Missing %s", key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, rejectf("Invalid %s", key)
	}
	return id, nil
}

func parseUUIDList(payload map[string]interface{}, key string) ([]uuid.UUID, error) {
	raw, ok := payload[key].([]interface{})
	if !ok {
		if ids, ok := payload[key].([]uuid.UUID); ok {
			return ids, nil
		}
		return nil, rejectf("Missing %s", key)
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		s, _ := v.(string)
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, rejectf("Invalid id in %s", key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseZone(payload map[string]interface{}, key string) (models.Zone, error) {
	s, _ := payload[key].(string)
	zone := models.Zone(strings.ToLower(strings.TrimSpace(s)))
	if !zone.Valid() {
		return "", rejectf("Unknown zone %q", s)
	}
	return zone, nil
}

// parseOptionalInt reads a JSON number (float64) or int; absent or malformed yields nil.
func parseOptionalInt(payload map[string]interface{}, key string) *int {
	switch v := payload[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		return &v
	default:
		return nil
	}
}

func parseOptionalBool(payload map[string]interface{}, key string) *bool {
	if b, ok := payload[key].(bool); ok {
		return &b
	}
	return nil
}

// parseAmount returns the payload amount, or def when it is absent.
func parseAmount(payload map[string]interface{}, def int) int {
	if n := parseOptionalInt(payload, "amount"); n != nil {
		return *n
	}
	return def
}

func normalizeType(cardType string) string {
	return strings.ToLower(strings.TrimSpace(cardType))
}
