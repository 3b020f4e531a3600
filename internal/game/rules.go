// internal/game/rules.go
package game

import (
	"errors"
	"fmt"
	"time"
)

// HouseRules defines the configurable parts of a room's game.
type HouseRules struct {
	MaxPlayers               int  `json:"maxPlayers"`               // seats in the room
	CardsPerPlayer           int  `json:"cardsPerPlayer"`           // cards dealt to each hand
	InitialKnown             int  `json:"initialKnown"`             // leading slots each player may see after the deal
	PenaltyDrawCount         int  `json:"penaltyDrawCount"`         // cards drawn on a failed snap
	AllowDrawFromDiscardPile bool `json:"allowDrawFromDiscardPile"` // allow taking the face-up discard instead of the deck
	PeekOpponents            bool `json:"peekOpponents"`            // a Queen may peek at an opponent's card instead of one's own
	EndGraceMs               int  `json:"endGraceMs"`               // delay between the last turn and scoring, open to snaps
	SettleDelayMs            int  `json:"settleDelayMs"`            // state re-broadcast delay after draw, act and snap
	SwapSettleDelayMs        int  `json:"swapSettleDelayMs"`        // re-broadcast delay after a Jack swap
	PeekSettleDelayMs        int  `json:"peekSettleDelayMs"`        // re-broadcast delay after a Queen peek
}

// DefaultHouseRules returns the standard Dutch table.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		MaxPlayers:        6,
		CardsPerPlayer:    4,
		InitialKnown:      2,
		PenaltyDrawCount:  1,
		EndGraceMs:        4000,
		SettleDelayMs:     900,
		SwapSettleDelayMs: 3100,
		PeekSettleDelayMs: 1000,
	}
}

// Update will update the house rules with the new rules provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
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

	assignInt := func(field *int, key string, minVal, maxVal int) error {
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
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	next := *rules
	steps := []error{
		assignInt(&next.MaxPlayers, "maxPlayers", 2, 8),
		assignInt(&next.CardsPerPlayer, "cardsPerPlayer", 1, 6),
		assignInt(&next.InitialKnown, "initialKnown", 0, 6),
		assignInt(&next.PenaltyDrawCount, "penaltyDrawCount", 0, 4),
		assignBool(&next.AllowDrawFromDiscardPile, "allowDrawFromDiscardPile"),
		assignBool(&next.PeekOpponents, "peekOpponents"),
		assignInt(&next.EndGraceMs, "endGraceMs", 0, 60000),
		assignInt(&next.SettleDelayMs, "settleDelayMs", 0, 10000),
		assignInt(&next.SwapSettleDelayMs, "swapSettleDelayMs", 0, 10000),
		assignInt(&next.PeekSettleDelayMs, "peekSettleDelayMs", 0, 10000),
	}
	if err := errors.Join(steps...); err != nil {
		return err
	}
	if next.InitialKnown > next.CardsPerPlayer {
		return errors.New("initialKnown cannot exceed cardsPerPlayer")
	}

	*rules = next
	return nil
}

// ParseRules converts a map of rules to a HouseRules struct. It will ensure the types are valid.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
