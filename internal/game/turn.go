package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
	"github.com/sirupsen/logrus"
)

// Start deals the first round. Leader only, from the lobby, with at least two players.
func (s *GameSession) Start(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.State != StateLobby {
		return s.reject("start", playerID, ErrAlreadyStarted)
	}
	if s.LeaderID != playerID {
		return s.reject("start", playerID, ErrNotLeader)
	}
	if len(s.Players) < 2 {
		return s.reject("start", playerID, ErrNotEnoughPlayers)
	}

	s.dealRound(0)
	s.logAction(playerID, models.GameAction{
		ActionType: models.ActionStart,
		Payload:    map[string]interface{}{"players": len(s.Players)},
	})
	s.broadcastState()
	return nil
}

// Restart deals a new round after one has ended. The previous Dutch caller starts.
func (s *GameSession) Restart(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.State != StateEnded {
		return s.reject("restart", playerID, ErrNotEnded)
	}
	if s.LeaderID != playerID {
		return s.reject("restart", playerID, ErrNotLeader)
	}
	if len(s.Players) < 2 {
		return s.reject("restart", playerID, ErrNotEnoughPlayers)
	}

	starter := 0
	if i := s.playerIndex(s.DutchCallerID); i != -1 {
		starter = i
	}
	s.dealRound(starter)

	s.logAction(playerID, models.GameAction{
		ActionType: models.ActionRestart,
		Payload:    map[string]interface{}{"starter": s.Players[starter].ID.String()},
	})
	s.announce("New round! %s starts.", s.Players[starter].Name)
	s.broadcastState()
	return nil
}

// dealRound resets every piece of round state and deals fresh hands.
func (s *GameSession) dealRound(starter int) {
	s.endTask.cancel()
	s.settleTask.cancel()

	s.Deck = newDeck(s.rng)
	s.DiscardPile = []*models.Card{s.popDeck()}
	for _, p := range s.Players {
		p.ResetRound()
		for i := 0; i < s.HouseRules.CardsPerPlayer; i++ {
			p.Hand = append(p.Hand, s.popDeck())
		}
		for i := 0; i < s.HouseRules.InitialKnown; i++ {
			p.MarkKnown(i)
		}
	}

	s.State = StatePlaying
	s.CurrentPlayerIndex = starter
	s.DrawnCard = nil
	s.DrawnSource = ""
	s.Power = PowerState{}
	s.DutchCallerID = uuid.Nil
	s.LastRoundActive = false
	s.LastActivePlayerID = uuid.Nil

	s.log.WithFields(logrus.Fields{
		"players": len(s.Players),
		"starter": s.Players[starter].ID,
	}).Info("round dealt")
}

// Draw takes a card for the current player. The card is shown to the drawer at once;
// everyone else sees it land after the settle delay.
func (s *GameSession) Draw(playerID uuid.UUID, source DrawSource) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.checkTurn("draw", playerID); err != nil {
		return err
	}
	if s.endTask.pending() {
		return s.reject("draw", playerID, ErrRoundEnding)
	}
	if s.DrawnCard != nil {
		return s.reject("draw", playerID, ErrAlreadyDrawn)
	}
	if s.Power.Active() {
		return s.reject("draw", playerID, ErrPowerPending)
	}

	var card *models.Card
	switch source {
	case SourceDeck, "":
		source = SourceDeck
		c, ok := s.drawCard()
		if !ok {
			s.announce("No cards left! The round ends now.")
			s.endRound("exhausted")
			return nil
		}
		card = c
	case SourceDiscard:
		// The face-up card must leave another behind it.
		if !s.HouseRules.AllowDrawFromDiscardPile || len(s.DiscardPile) < 2 {
			return s.reject("draw", playerID, ErrDrawSource)
		}
		card = s.DiscardPile[len(s.DiscardPile)-1]
		s.DiscardPile = s.DiscardPile[:len(s.DiscardPile)-1]
	default:
		return s.reject("draw", playerID, ErrDrawSource)
	}

	s.DrawnCard = card
	s.DrawnSource = source

	s.fireEventToPlayer(playerID, GameEvent{
		Type: EventPrivateCardDrawn,
		Card: cardEvent(card, -1, playerID),
	})
	s.animate(AnimDraw, playerID, map[string]interface{}{"source": string(source)})
	s.logAction(playerID, models.GameAction{
		ActionType: models.ActionDraw,
		Payload:    map[string]interface{}{"source": string(source), "card": card.ID.String()},
	})
	s.scheduleBroadcast(s.HouseRules.SettleDelayMs)
	return nil
}

// Act plays the drawn card: either into a hand slot (swap) or straight onto the discard pile.
func (s *GameSession) Act(playerID uuid.UUID, choice Choice, slot int) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.checkTurn("act", playerID); err != nil {
		return err
	}
	if s.DrawnCard == nil {
		return s.reject("act", playerID, ErrNothingDrawn)
	}
	if s.Power.Active() {
		return s.reject("act", playerID, ErrPowerPending)
	}

	p := s.Players[s.CurrentPlayerIndex]
	drawn := s.DrawnCard

	switch choice {
	case ChoiceSwap:
		if slot < 0 || slot >= len(p.Hand) {
			return s.reject("act", playerID, ErrInvalidSlot)
		}
		old := p.Hand[slot]
		p.Hand[slot] = drawn
		p.MarkKnown(slot)
		s.clearDrawn()

		s.animate(AnimSwapSelf, playerID, map[string]interface{}{"slot": slot})
		s.logAction(playerID, models.GameAction{
			ActionType: models.ActionSwap,
			Payload:    map[string]interface{}{"slot": slot, "discarded": old.ID.String()},
		})
		s.discard(old, playerID, false)

	case ChoiceDiscard:
		if s.DrawnSource == SourceDiscard {
			return s.reject("act", playerID, ErrReDiscard)
		}
		s.clearDrawn()

		s.animate(AnimDiscardDrawn, playerID, nil)
		s.logAction(playerID, models.GameAction{
			ActionType: models.ActionDiscard,
			Payload:    map[string]interface{}{"card": drawn.ID.String()},
		})
		s.discard(drawn, playerID, false)

	default:
		return s.reject("act", playerID, ErrUnknownChoice)
	}

	if !s.Power.Active() {
		s.advanceTurn()
	}
	s.scheduleBroadcast(s.HouseRules.SettleDelayMs)
	return nil
}

// SkipPower declines the pending power. A turn power still ends the turn.
func (s *GameSession) SkipPower(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.State != StatePlaying {
		return s.reject("skip_power", playerID, ErrNotPlaying)
	}
	if !s.Power.Active() {
		return s.reject("skip_power", playerID, ErrNoPower)
	}
	if s.Power.Initiator != playerID {
		return s.reject("skip_power", playerID, ErrNotInitiator)
	}

	fromSnap := s.Power.FromSnap
	s.Power = PowerState{}
	s.announce("Power skipped.")
	s.logAction(playerID, models.GameAction{
		ActionType: models.ActionSkipPower,
		Payload:    map[string]interface{}{"from_snap": fromSnap},
	})

	if !fromSnap {
		s.advanceTurn()
	}
	if s.State == StatePlaying {
		s.broadcastState()
	}
	return nil
}

// checkTurn rejects commands from anyone but the current player of a live round.
func (s *GameSession) checkTurn(cmd string, playerID uuid.UUID) error {
	if s.State != StatePlaying {
		return s.reject(cmd, playerID, ErrNotPlaying)
	}
	idx := s.playerIndex(playerID)
	if idx == -1 {
		return s.reject(cmd, playerID, ErrPlayerNotFound)
	}
	if idx != s.CurrentPlayerIndex {
		return s.reject(cmd, playerID, ErrNotYourTurn)
	}
	return nil
}

func (s *GameSession) clearDrawn() {
	s.DrawnCard = nil
	s.DrawnSource = ""
}

// discard puts a card face-up on the pile and arms the power its rank carries.
func (s *GameSession) discard(card *models.Card, initiator uuid.UUID, fromSnap bool) {
	s.DiscardPile = append(s.DiscardPile, card)
	s.armPower(card, initiator, fromSnap)
}

func (s *GameSession) armPower(card *models.Card, initiator uuid.UUID, fromSnap bool) {
	kind := powerFor(card)
	if kind == PowerNone {
		return
	}
	s.Power = PowerState{Kind: kind, Initiator: initiator, FromSnap: fromSnap}

	switch kind {
	case PowerSwap:
		s.announce("Jack power: %s may swap a card blind!", s.nameOf(initiator))
	case PowerPeek:
		s.announce("Queen power: %s may peek at a card!", s.nameOf(initiator))
	}
}

// advanceTurn ends the current player's turn. In the last round, handing control back to
// the Dutch caller ends the round instead.
func (s *GameSession) advanceTurn() {
	cur := s.currentPlayer()
	if cur == nil {
		return
	}
	s.LastActivePlayerID = cur.ID

	next := (s.CurrentPlayerIndex + 1) % len(s.Players)
	if s.LastRoundActive && s.Players[next].ID == s.DutchCallerID {
		s.scheduleEnd()
		return
	}

	s.CurrentPlayerIndex = next
	if np := s.Players[next]; !s.LastRoundActive && len(np.Hand) == 0 {
		s.triggerEndRound(np.ID)
	}
}
