// internal/models/card.go
package models

import "github.com/google/uuid"

// Card types that route a played card somewhere other than the summoning zone.
const (
	CardTypeAction   = "action"
	CardTypeItem     = "item"
	CardTypeLocation = "location"
)

// Descriptor is the normalized card metadata supplied by the card resolver.
// The engine never mutates it.
type Descriptor struct {
	Name           string `json:"name"`
	Subtitle       string `json:"subtitle"`
	FullName       string `json:"full_name"`
	Cost           int    `json:"cost"`
	Inkwell        bool   `json:"inkwell"`
	Type           string `json:"type"`
	ImageURL       string `json:"image_url"`
	Classification string `json:"classification,omitempty"`
	Rarity         string `json:"rarity,omitempty"`
	Set            string `json:"set,omitempty"`
	CardNum        int    `json:"card_num,omitempty"`

	// Placeholder marks descriptors produced when the card could not be resolved.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Card is a single card instance in a game.
type Card struct {
	ID         uuid.UUID  `json:"id"`
	Descriptor Descriptor `json:"card_data"`
	Owner      uuid.UUID  `json:"owner"`
	Zone       Zone       `json:"zone"`
	FaceUp     bool       `json:"face_up"`
	Exerted    bool       `json:"exerted"`
	Damage     int        `json:"damage"`
}

// NewCard creates a face-down card in its owner's deck.
func NewCard(owner uuid.UUID, d Descriptor) *Card {
	return &Card{
		ID:         uuid.New(),
		Descriptor: d,
		Owner:      owner,
		Zone:       ZoneDeck,
	}
}
