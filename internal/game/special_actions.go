package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
)

// PowerRequest carries the choices for resolving a power.
//
// PEEK looks at TargetSlot of TargetPlayerID, which defaults to the initiator. SWAP trades
// the initiator's MySlot with TargetSlot of the opponent TargetPlayerID.
type PowerRequest struct {
	Kind           PowerKind `json:"power"`
	MySlot         int       `json:"slot"`
	TargetPlayerID uuid.UUID `json:"targetPlayerId"`
	TargetSlot     int       `json:"targetSlot"`
}

// ResolvePower carries out the pending power for its initiator.
func (s *GameSession) ResolvePower(playerID uuid.UUID, req PowerRequest) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.State != StatePlaying {
		return s.reject("resolve_power", playerID, ErrNotPlaying)
	}
	if !s.Power.Active() {
		return s.reject("resolve_power", playerID, ErrNoPower)
	}
	if s.Power.Kind != req.Kind {
		return s.reject("resolve_power", playerID, ErrWrongPower)
	}
	if s.Power.Initiator != playerID {
		return s.reject("resolve_power", playerID, ErrNotInitiator)
	}
	me := s.player(playerID)
	if me == nil {
		return s.reject("resolve_power", playerID, ErrPlayerNotFound)
	}

	var delay int
	switch s.Power.Kind {
	case PowerPeek:
		if err := s.peek(me, req); err != nil {
			return s.reject("resolve_power", playerID, err)
		}
		delay = s.HouseRules.PeekSettleDelayMs
	case PowerSwap:
		if err := s.blindSwap(me, req); err != nil {
			return s.reject("resolve_power", playerID, err)
		}
		delay = s.HouseRules.SwapSettleDelayMs
	default:
		return s.reject("resolve_power", playerID, ErrNoPower)
	}

	fromSnap := s.Power.FromSnap
	s.Power = PowerState{}
	if fromSnap {
		s.announce("Power resolved, play resumes.")
	} else {
		s.advanceTurn()
	}
	s.scheduleBroadcast(delay)
	return nil
}

// peek discloses one card to the initiator only. Nothing about it is remembered.
func (s *GameSession) peek(me *models.Player, req PowerRequest) error {
	target := me
	if req.TargetPlayerID != uuid.Nil && req.TargetPlayerID != me.ID {
		if !s.HouseRules.PeekOpponents {
			return ErrInvalidTarget
		}
		if target = s.player(req.TargetPlayerID); target == nil {
			return ErrInvalidTarget
		}
	}
	if req.TargetSlot < 0 || req.TargetSlot >= len(target.Hand) {
		return ErrInvalidSlot
	}

	card := target.Hand[req.TargetSlot]
	s.fireEventToPlayer(me.ID, GameEvent{
		Type: EventPrivatePeekResult,
		Card: cardEvent(card, req.TargetSlot, target.ID),
	})
	if target != me {
		s.announce("%s peeked at one of %s's cards.", me.Name, target.Name)
	}
	s.logAction(me.ID, models.GameAction{
		ActionType: models.ActionPeek,
		Payload: map[string]interface{}{
			"target": target.ID.String(),
			"slot":   req.TargetSlot,
		},
	})
	return nil
}

// blindSwap exchanges two cards in place. Neither side saw what they received, so both
// slots become unknown.
func (s *GameSession) blindSwap(me *models.Player, req PowerRequest) error {
	target := s.player(req.TargetPlayerID)
	if target == nil || target == me {
		return ErrInvalidTarget
	}
	if req.MySlot < 0 || req.MySlot >= len(me.Hand) || req.TargetSlot < 0 || req.TargetSlot >= len(target.Hand) {
		return ErrInvalidSlot
	}

	s.animate(AnimSwapPlayers, me.ID, map[string]interface{}{
		"fromId":    me.ID,
		"fromIndex": req.MySlot,
		"toId":      target.ID,
		"toIndex":   req.TargetSlot,
	})

	me.Hand[req.MySlot], target.Hand[req.TargetSlot] = target.Hand[req.TargetSlot], me.Hand[req.MySlot]
	me.Forget(req.MySlot)
	target.Forget(req.TargetSlot)

	s.logAction(me.ID, models.GameAction{
		ActionType: models.ActionPowerSwap,
		Payload: map[string]interface{}{
			"slot":        req.MySlot,
			"target":      target.ID.String(),
			"target_slot": req.TargetSlot,
		},
	})
	return nil
}
