// internal/game/actions.go
package game

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
	log "github.com/sirupsen/logrus"
)

// Action types accepted by HandlePlayerAction.
const (
	ActionMoveCard        = "move_card"
	ActionInkCard         = "ink_card"
	ActionPlayCard        = "play_card"
	ActionExertCard       = "exert_card"
	ActionReadyCard       = "ready_card"
	ActionAddDamage       = "add_damage"
	ActionRemoveDamage    = "remove_damage"
	ActionDrawCard        = "draw_card"
	ActionShuffleDeck     = "shuffle_deck"
	ActionEndTurn         = "end_turn"
	ActionAddLore         = "add_lore"
	ActionFlipMysteryCard = "flip_mystery_card"
	ActionMulligan        = "mulligan"
)

// HandlePlayerAction validates and applies one action for playerID.
// On success every connected player receives a fresh snapshot. On failure only
// the actor is told why, nothing is broadcast and the error is returned.
//
// Assumes lock is HELD by the caller.
func (g *InkwellGame) HandlePlayerAction(playerID uuid.UUID, action models.GameAction) error {
	err := g.applyAction(playerID, action)
	if err != nil {
		if errors.Is(err, ErrInvariant) {
			log.Errorf("Game %s: action %s from %s aborted: %v", g.ID, action.ActionType, playerID, err)
		} else {
			log.Debugf("Game %s: action %s from %s rejected: %v", g.ID, action.ActionType, playerID, err)
		}
		g.rejectToPlayer(playerID, err)
		return err
	}

	g.touch()
	g.logAction(playerID, action.ActionType, action.Payload)
	if err := g.CheckInvariants(); err != nil {
		log.Errorf("Game %s: state check failed after %s: %v", g.ID, action.ActionType, err)
	}
	g.broadcastSyncStateToAll()
	return nil
}

func (g *InkwellGame) applyAction(playerID uuid.UUID, action models.GameAction) error {
	if _, err := g.getPlayer(playerID); err != nil {
		return err
	}
	if !g.Started {
		return ErrGameNotStarted
	}
	p := action.Payload

	switch action.ActionType {
	case ActionMoveCard:
		cardID, err := g.ownedCard(playerID, p)
		if err != nil {
			return err
		}
		zone, err := parseZone(p, "to_zone")
		if err != nil {
			return err
		}
		return g.MoveCard(cardID, zone, parseOptionalInt(p, "position"), parseOptionalBool(p, "face_up"))

	case ActionInkCard:
		cardID, err := g.ownedCard(playerID, p)
		if err != nil {
			return err
		}
		if err := g.requireTurn(playerID); err != nil {
			return err
		}
		return g.InkCard(cardID)

	case ActionPlayCard:
		cardID, err := g.ownedCard(playerID, p)
		if err != nil {
			return err
		}
		if err := g.requireTurn(playerID); err != nil {
			return err
		}
		if err := g.CanPlayCard(cardID); err != nil {
			return err
		}
		return g.PlayCard(cardID)

	case ActionExertCard, ActionReadyCard, ActionAddDamage, ActionRemoveDamage:
		cardID, err := g.tappableCard(playerID, p)
		if err != nil {
			return err
		}
		switch action.ActionType {
		case ActionExertCard:
			return g.ExertCard(cardID)
		case ActionReadyCard:
			return g.ReadyCard(cardID)
		case ActionAddDamage:
			return g.AddDamage(cardID, parseAmount(p, 1))
		default:
			return g.RemoveDamage(cardID, parseAmount(p, 1))
		}

	case ActionDrawCard:
		_, err := g.DrawCards(playerID, 1)
		return err

	case ActionShuffleDeck:
		return g.ShuffleDeck(playerID)

	case ActionEndTurn:
		return g.EndTurn(playerID)

	case ActionAddLore:
		return g.AddLore(playerID, parseAmount(p, 1))

	case ActionFlipMysteryCard:
		return g.FlipMysteryCard(playerID)

	case ActionMulligan:
		ids, err := parseUUIDList(p, "card_ids")
		if err != nil {
			return err
		}
		_, err = g.Mulligan(playerID, ids)
		return err

	default:
		return ErrUnknownAction
	}
}

// ownedCard resolves the payload card and checks the actor owns it.
func (g *InkwellGame) ownedCard(playerID uuid.UUID, payload map[string]interface{}) (uuid.UUID, error) {
	cardID, err := parseUUID(payload, "card_id")
	if err != nil {
		return uuid.Nil, err
	}
	card, _, err := g.getCard(cardID)
	if err != nil {
		return uuid.Nil, err
	}
	if card.Owner != playerID {
		return uuid.Nil, ErrNotCardOwner
	}
	return cardID, nil
}

// tappableCard resolves the payload card for exert, ready and damage,
// which are open to any player unless RestrictTapToOwner is set.
func (g *InkwellGame) tappableCard(playerID uuid.UUID, payload map[string]interface{}) (uuid.UUID, error) {
	if g.HouseRules.RestrictTapToOwner {
		return g.ownedCard(playerID, payload)
	}
	cardID, err := parseUUID(payload, "card_id")
	if err != nil {
		return uuid.Nil, err
	}
	if _, _, err := g.getCard(cardID); err != nil {
		return uuid.Nil, err
	}
	return cardID, nil
}

func (g *InkwellGame) requireTurn(playerID uuid.UUID) error {
	if g.HouseRules.EnforceTurnOrder && !g.IsPlayersTurn(playerID) {
		return rejectf("It is not your turn")
	}
	return nil
}
