// internal/game/mutators.go
package game

import (
	"math"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
)

// ExertCard taps a card in any zone.
func (g *InkwellGame) ExertCard(cardID uuid.UUID) error {
	card, _, err := g.getCard(cardID)
	if err != nil {
		return err
	}
	card.Exerted = true
	return nil
}

// ReadyCard untaps a card in any zone.
func (g *InkwellGame) ReadyCard(cardID uuid.UUID) error {
	card, _, err := g.getCard(cardID)
	if err != nil {
		return err
	}
	card.Exerted = false
	return nil
}

// AddDamage places amount damage counters on a card. The count saturates at math.MaxInt.
func (g *InkwellGame) AddDamage(cardID uuid.UUID, amount int) error {
	card, _, err := g.getCard(cardID)
	if err != nil {
		return err
	}
	if amount < 0 {
		return rejectf("Damage amount must not be negative")
	}
	if amount > math.MaxInt-card.Damage {
		card.Damage = math.MaxInt
	} else {
		card.Damage += amount
	}
	return nil
}

// RemoveDamage takes damage counters off a card, stopping at zero.
func (g *InkwellGame) RemoveDamage(cardID uuid.UUID, amount int) error {
	card, _, err := g.getCard(cardID)
	if err != nil {
		return err
	}
	if amount < 0 {
		return rejectf("Damage amount must not be negative")
	}
	card.Damage = max(card.Damage-amount, 0)
	return nil
}

// DrawCards moves up to count cards from the top of the deck into hand, face-up.
// An empty deck ends the draw early. It returns the number of cards drawn.
func (g *InkwellGame) DrawCards(playerID uuid.UUID, count int) (int, error) {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return 0, err
	}
	return g.moveTop(player, models.ZoneDeck, models.ZoneHand, count, true)
}

// ShuffleDeck shuffles the player's deck zone only.
func (g *InkwellGame) ShuffleDeck(playerID uuid.UUID) error {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return err
	}
	g.shuffleZone(player, models.ZoneDeck)
	return nil
}

// AddLore adjusts a player's lore by amount, which may be negative.
func (g *InkwellGame) AddLore(playerID uuid.UUID, amount int) error {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return err
	}
	player.Lore += amount
	return nil
}
