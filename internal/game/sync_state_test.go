package game

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCard(cards []ObfCard, id uuid.UUID) *ObfCard {
	for i := range cards {
		if cards[i].ID == id {
			return &cards[i]
		}
	}
	return nil
}

func TestHandCardsVisibleOnlyToOwner(t *testing.T) {
	g, _, _ := setupTestGame(t, 3, 30, nil)
	owner := seat(g, 0)
	handID := owner.Zones[models.ZoneHand][0]
	require.True(t, g.Cards[handID].FaceUp)

	own := g.GetStateForPlayer(owner.ID)
	oc := findCard(own.OwnCards, handID)
	require.NotNil(t, oc)
	assert.True(t, oc.Known)
	require.NotNil(t, oc.Descriptor)
	assert.Equal(t, "Stitch", oc.Descriptor.Name)

	for _, pid := range g.PlayerOrder[1:] {
		view := g.GetStateForPlayer(pid)
		assert.Nil(t, findCard(view.OpponentVisibleCards, handID))
		assert.Nil(t, findCard(view.OwnCards, handID))
	}
}

func TestFaceUpCardsInPlayVisibleToOpponents(t *testing.T) {
	g, _, _ := setupTestGame(t, 2, 30, nil)
	owner, viewer := seat(g, 0), seat(g, 1)
	played := owner.Zones[models.ZoneHand][0]
	g.Cards[played].Descriptor.Cost = 0
	require.NoError(t, g.PlayCard(played))
	giveInk(t, g, owner, 1)
	inkID := owner.Zones[models.ZoneInk][0]

	view := g.GetStateForPlayer(viewer.ID)
	oc := findCard(view.OpponentVisibleCards, played)
	require.NotNil(t, oc)
	assert.Equal(t, models.ZoneSummoning, oc.Zone)
	require.NotNil(t, oc.Descriptor)
	assert.Nil(t, findCard(view.OpponentVisibleCards, inkID), "unspent ink is face-down")
	assert.Nil(t, findCard(view.OpponentVisibleCards, owner.Zones[models.ZoneMystery][0]))
}

func TestOwnFaceDownCardsAreListedWithoutFace(t *testing.T) {
	g, _, _ := setupTestGame(t, 2, 30, nil)
	p := seat(g, 0)
	view := g.GetStateForPlayer(p.ID)

	assert.Len(t, view.OwnCards, 30)
	deckID := p.Zones[models.ZoneDeck][0]
	oc := findCard(view.OwnCards, deckID)
	require.NotNil(t, oc)
	assert.False(t, oc.Known)
	assert.Nil(t, oc.Descriptor)
}

func TestOpponentZonesReducedToCounts(t *testing.T) {
	g, _, _ := setupTestGame(t, 2, 30, nil)
	me, them := seat(g, 0), seat(g, 1)
	view := g.GetStateForPlayer(me.ID)

	require.Len(t, view.Players, 2)
	assert.Equal(t, g.PlayerOrder, view.PlayerOrder)
	assert.Equal(t, g.CurrentTurnPlayerID, view.CurrentTurnPlayerID)
	assert.Equal(t, 1, view.TurnNumber)
	for _, ps := range view.Players {
		switch ps.PlayerID {
		case me.ID:
			assert.Equal(t, me.Zones[models.ZoneHand], ps.Zones[models.ZoneHand])
			assert.True(t, ps.IsCurrentTurn)
		case them.ID:
			assert.Nil(t, ps.Zones)
			assert.Equal(t, 7, ps.ZoneCounts[models.ZoneHand])
			assert.Equal(t, 22, ps.ZoneCounts[models.ZoneDeck])
		}
	}

	// the serialized form must not leak opponent card ids either
	data, err := json.Marshal(view)
	require.NoError(t, err)
	for _, id := range them.Zones[models.ZoneHand] {
		assert.NotContains(t, string(data), id.String())
	}
}

func TestSnapshotIsDetachedFromState(t *testing.T) {
	g, _, _ := setupTestGame(t, 2, 30, nil)
	p := seat(g, 0)
	view := g.GetStateForPlayer(p.ID)

	var mine ObfPlayerState
	for _, ps := range view.Players {
		if ps.PlayerID == p.ID {
			mine = ps
		}
	}
	mine.Zones[models.ZoneHand][0] = uuid.Nil
	view.PlayerOrder[0] = uuid.Nil
	assert.NotEqual(t, uuid.Nil, p.Zones[models.ZoneHand][0])
	assert.NotEqual(t, uuid.Nil, g.PlayerOrder[0])
}
