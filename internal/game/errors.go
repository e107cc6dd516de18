// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

var (
	// ErrGameNotFound is returned by the store and transport when a game id is unknown.
	ErrGameNotFound = errors.New("game not found")
	// ErrCardNotFound means the referenced card id is not part of this game.
	ErrCardNotFound = errors.New("card not found")
	// ErrPlayerNotFound means the referenced player is not seated in this game.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNotCardOwner is the authorization failure for acting on another player's card.
	ErrNotCardOwner = errors.New("not your card")
	// ErrUnknownAction is returned for action types the engine does not route.
	ErrUnknownAction = errors.New("unknown action type")
	// ErrGameStarted is returned when setup is attempted after the game began.
	ErrGameStarted = errors.New("game already started")
	// ErrGameNotStarted is returned when an action arrives before StartGame.
	ErrGameNotStarted = errors.New("game has not started")
	// ErrInvariant marks internal corruption of the zone model. It is never a user error.
	ErrInvariant = errors.New("game state invariant violated")
)

// ValidationError is a legality failure. Reason is shown to the acting player.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func rejectf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func invariantf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// IsRejection reports whether err is an expected, user-facing refusal
// (validation, authorization or a missing entity) rather than an internal fault.
func IsRejection(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrNotCardOwner) ||
		errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrGameNotStarted) ||
		errors.Is(err, ErrGameStarted) ||
		errors.Is(err, ErrUnknownAction)
}

// RejectionReason returns the message sent back to the acting player for err.
func RejectionReason(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Reason
	case errors.Is(err, ErrNotCardOwner):
		return "Not your card"
	case errors.Is(err, ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, ErrPlayerNotFound):
		return "You are not a player in this game"
	case errors.Is(err, ErrGameNotStarted):
		return "Game has not started"
	case errors.Is(err, ErrGameStarted):
		return "Game has already started"
	case errors.Is(err, ErrUnknownAction):
		return "Unknown action type"
	default:
		return "Internal error, action was not applied"
	}
}
