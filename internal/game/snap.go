package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
	"github.com/sirupsen/logrus"
)

// Snap is an out-of-turn claim that the card in slot matches the rank on top of the
// discard pile. Commands are serialized, so each claim is judged against the top card as
// it stands when the claim is evaluated: of two snaps on the same top, only the first can
// match it. A miss is a penalty, not an error.
func (s *GameSession) Snap(playerID uuid.UUID, slot int) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.State != StatePlaying {
		return s.reject("snap", playerID, ErrNotPlaying)
	}
	snapper := s.player(playerID)
	if snapper == nil {
		return s.reject("snap", playerID, ErrPlayerNotFound)
	}
	if slot < 0 || slot >= len(snapper.Hand) {
		return s.reject("snap", playerID, ErrInvalidSlot)
	}
	top := s.topDiscard()
	if top == nil {
		return s.reject("snap", playerID, ErrNotPlaying)
	}

	card := snapper.Hand[slot]
	if card.Rank != top.Rank {
		s.snapPenalty(snapper, card)
		s.scheduleBroadcast(s.HouseRules.SettleDelayMs)
		return nil
	}

	// The pending power dies before anything else happens.
	cancelled := s.Power
	s.Power = PowerState{}
	if cancelled.Active() {
		s.announce("Too slow! %s's snap cancelled %s's power!", snapper.Name, s.nameOf(cancelled.Initiator))
	}

	s.animate(AnimSnap, playerID, map[string]interface{}{"slot": slot})
	snapper.RemoveSlot(slot)
	s.DiscardPile = append(s.DiscardPile, card)
	s.announce("%s snapped a %s!", snapper.Name, card.Rank)

	s.log.WithFields(logrus.Fields{
		"player":    playerID,
		"rank":      card.Rank,
		"cancelled": cancelled.Kind,
	}).Debug("snap matched")
	s.logAction(playerID, models.GameAction{
		ActionType: models.ActionSnap,
		Payload: map[string]interface{}{
			"slot":      slot,
			"card":      card.ID.String(),
			"cancelled": string(cancelled.Kind),
		},
	})

	// The turn stays with the interrupted player; a cancelled turn power is simply lost.
	s.armPower(card, playerID, true)
	if len(snapper.Hand) == 0 {
		s.triggerEndRound(playerID)
	}
	s.scheduleBroadcast(s.HouseRules.SettleDelayMs)
	return nil
}

// snapPenalty deals penalty cards face-down to a player who snapped the wrong rank.
// An empty deck is refilled from the discard pile like any other draw, so a miss is still
// punished late in a round. Only when both are exhausted does the penalty lapse.
func (s *GameSession) snapPenalty(snapper *models.Player, claimed *models.Card) {
	drawn := 0
	for i := 0; i < s.HouseRules.PenaltyDrawCount; i++ {
		c, ok := s.drawCard()
		if !ok {
			break
		}
		snapper.Hand = append(snapper.Hand, c)
		drawn++
	}

	if drawn > 0 {
		s.announce("%s missed! (+%d card)", snapper.Name, drawn)
	} else {
		s.announce("%s missed!", snapper.Name)
	}
	s.logAction(snapper.ID, models.GameAction{
		ActionType: models.ActionSnapFail,
		Payload: map[string]interface{}{
			"card":    claimed.ID.String(),
			"penalty": drawn,
		},
	})
}
