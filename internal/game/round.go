package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
	"github.com/sirupsen/logrus"
)

// CallDutch starts the last round. The current player may call at any point in their turn;
// the player whose turn just ended may still call until the next player draws or has a
// power pending.
func (s *GameSession) CallDutch(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.State != StatePlaying {
		return s.reject("call_dutch", playerID, ErrNotPlaying)
	}
	idx := s.playerIndex(playerID)
	if idx == -1 {
		return s.reject("call_dutch", playerID, ErrPlayerNotFound)
	}

	isCurrent := idx == s.CurrentPlayerIndex
	buzzer := !isCurrent && s.LastActivePlayerID == playerID
	if !isCurrent {
		switch {
		case !buzzer:
			return s.reject("call_dutch", playerID, ErrNotYourTurn)
		case s.DrawnCard != nil, s.Power.Active():
			return s.reject("call_dutch", playerID, ErrTooLate)
		}
	}
	if s.LastRoundActive {
		return s.reject("call_dutch", playerID, ErrDutchAlreadyCalled)
	}

	s.LastRoundActive = true
	s.DutchCallerID = playerID

	name := s.Players[idx].Name
	if buzzer {
		s.announce("Just in time! %s calls DUTCH before the draw!", name)
	} else {
		s.announce("%s calls DUTCH!", name)
	}
	s.log.WithFields(logrus.Fields{"player": playerID, "buzzer": buzzer}).Info("dutch called")
	s.logAction(playerID, models.GameAction{
		ActionType: models.ActionCallDutch,
		Payload:    map[string]interface{}{"buzzer": buzzer},
	})
	s.broadcastState()
	return nil
}

// triggerEndRound starts the last round on behalf of a player whose hand emptied.
func (s *GameSession) triggerEndRound(playerID uuid.UUID) {
	if s.LastRoundActive {
		return
	}
	s.LastRoundActive = true
	s.DutchCallerID = playerID
	s.announce("%s has no cards left! Last round.", s.nameOf(playerID))
	s.log.WithField("player", playerID).Info("last round triggered by empty hand")
}

// scheduleEnd arms the end-of-round grace timer once; later calls are no-ops until it fires.
func (s *GameSession) scheduleEnd() {
	if s.endTask.pending() {
		return
	}
	grace := s.HouseRules.EndGraceMs
	if grace > 0 {
		s.announce("Round ends in %d seconds... snap fast!", (grace+999)/1000)
	}
	s.endTask.schedule(&s.Mu, millis(grace), func() {
		s.endRound("dutch")
	})
}

// endRound scores the round and reveals every hand. Any path that ends the round goes
// through here, so a pending grace timer is always cancelled.
func (s *GameSession) endRound(reason string) {
	if s.State != StatePlaying {
		return
	}
	s.endTask.cancel()
	s.settleTask.cancel()

	if s.DrawnCard != nil {
		s.tuckUnderTop([]*models.Card{s.DrawnCard})
		s.clearDrawn()
	}
	s.Power = PowerState{}
	s.State = StateEnded

	scores := make(map[string]interface{}, len(s.Players))
	for _, p := range s.Players {
		score := p.HandValue()
		p.RoundScore = &score
		p.TotalScore += score
		p.RevealAll()
		scores[p.ID.String()] = score
	}

	s.log.WithFields(logrus.Fields{"reason": reason, "scores": scores}).Info("round ended")
	s.logAction(uuid.Nil, models.GameAction{
		ActionType: models.ActionRoundEnd,
		Payload: map[string]interface{}{
			"reason":  reason,
			"results": s.resultsPayload(),
		},
	})
	s.fireEvent(GameEvent{
		Type:    EventRoundEnd,
		Payload: map[string]interface{}{"reason": reason, "scores": scores},
	})
	s.broadcastState()
}

// cancelRound abandons a round without scoring it.
func (s *GameSession) cancelRound() {
	s.endTask.cancel()
	s.settleTask.cancel()
	if s.DrawnCard != nil {
		s.tuckUnderTop([]*models.Card{s.DrawnCard})
		s.clearDrawn()
	}
	s.State = StateEnded
	s.Power = PowerState{}
	s.DutchCallerID = uuid.Nil
	s.LastRoundActive = false
	s.LastActivePlayerID = uuid.Nil
	s.log.Info("round cancelled")
}
