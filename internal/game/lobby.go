package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
	"github.com/sirupsen/logrus"
)

// Summary describes a room for listings.
type Summary struct {
	Room      string    `json:"room"`
	SessionID uuid.UUID `json:"sessionId"`
	State     State     `json:"state"`
	Players   int       `json:"players"`
	Seats     int       `json:"seats"`
}

// Join seats a new player. The first player to join becomes the room leader.
func (s *GameSession) Join(playerID uuid.UUID, name string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	name = strings.TrimSpace(name)
	switch {
	case s.closed:
		return s.reject("join", playerID, ErrSessionClosed)
	case name == "":
		return s.reject("join", playerID, ErrNameRequired)
	case s.playerIndex(playerID) != -1:
		return s.reject("join", playerID, ErrAlreadyJoined)
	}
	for _, p := range s.Players {
		if strings.EqualFold(p.Name, name) {
			return s.reject("join", playerID, ErrNameTaken)
		}
	}
	if len(s.Players) >= s.HouseRules.MaxPlayers {
		return s.reject("join", playerID, ErrRoomFull)
	}
	if s.State == StatePlaying {
		return s.reject("join", playerID, ErrRoundInProgress)
	}

	s.Players = append(s.Players, models.NewPlayer(playerID, name))
	if s.LeaderID == uuid.Nil || s.playerIndex(s.LeaderID) == -1 {
		s.LeaderID = s.Players[0].ID
	}

	s.log.WithFields(logrus.Fields{"player": playerID, "name": name}).Info("player joined")
	s.logAction(playerID, models.GameAction{
		ActionType: models.ActionJoin,
		Payload:    map[string]interface{}{"name": name},
	})

	s.broadcastLobby()
	if s.State == StateEnded {
		s.announce("%s joins for the next round!", name)
		s.broadcastState()
	}
	return nil
}

// Leave removes a player at their request and acknowledges it to them.
func (s *GameSession) Leave(playerID uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	idx := s.playerIndex(playerID)
	if idx == -1 {
		return s.reject("leave", playerID, ErrPlayerNotFound)
	}
	s.fireEventToPlayer(playerID, GameEvent{Type: EventLeft})
	s.removePlayer(idx)
	return nil
}

// Disconnect removes a player whose connection dropped. Unknown ids are ignored.
func (s *GameSession) Disconnect(playerID uuid.UUID) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if idx := s.playerIndex(playerID); idx != -1 {
		s.removePlayer(idx)
	}
}

// removePlayer takes a seat out of turn order. The turn pointer is re-derived from the
// identity of whoever held it rather than patched positionally.
func (s *GameSession) removePlayer(idx int) {
	leaver := s.Players[idx]
	playing := s.State == StatePlaying

	var currentID uuid.UUID
	if cur := s.currentPlayer(); playing && cur != nil {
		currentID = cur.ID
	}
	wasCurrent := playing && currentID == leaver.ID

	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	s.log.WithFields(logrus.Fields{"player": leaver.ID, "name": leaver.Name}).Info("player left")
	s.logAction(leaver.ID, models.GameAction{ActionType: models.ActionLeave})

	if len(s.Players) == 0 {
		s.endTask.cancel()
		s.settleTask.cancel()
		s.closed = true
		if s.OnEmpty != nil {
			s.OnEmpty(s)
		}
		return
	}

	if s.LeaderID == leaver.ID {
		s.LeaderID = s.Players[0].ID
		s.announce("%s is now the room leader!", s.Players[0].Name)
	}

	// The leaver's cards go back under the discard top so none leave play.
	returned := leaver.Hand
	leaver.Hand = nil
	leaver.Known = nil
	if wasCurrent && s.DrawnCard != nil {
		returned = append(returned, s.DrawnCard)
		s.DrawnCard = nil
		s.DrawnSource = ""
	}
	s.tuckUnderTop(returned)

	if !playing {
		s.broadcastLobby()
		s.announce("%s left the game.", leaver.Name)
		if s.State == StateEnded {
			s.broadcastState()
		}
		return
	}

	if len(s.Players) < 2 {
		s.cancelRound()
		s.announce("%s left. Round cancelled.", leaver.Name)
		s.broadcastState()
		s.broadcastLobby()
		return
	}

	if wasCurrent {
		s.CurrentPlayerIndex = idx % len(s.Players)
	} else {
		s.CurrentPlayerIndex = s.playerIndex(currentID)
	}
	if s.Power.Active() && s.Power.Initiator == leaver.ID {
		s.Power = PowerState{}
	}
	if s.LastActivePlayerID == leaver.ID {
		s.LastActivePlayerID = uuid.Nil
	}
	if s.DutchCallerID == leaver.ID && !s.endTask.pending() {
		s.DutchCallerID = uuid.Nil
		s.LastRoundActive = false
	}
	// The turn passing straight to the caller closes the last lap.
	if wasCurrent && s.LastRoundActive && s.Players[s.CurrentPlayerIndex].ID == s.DutchCallerID {
		s.scheduleEnd()
	}

	if s.State == StatePlaying {
		s.broadcastState()
	}
	s.broadcastLobby()
	s.announce("%s left the game.", leaver.Name)
}

// UpdateRules applies a partial rule change. Only the leader may change rules, and never mid-round.
func (s *GameSession) UpdateRules(playerID uuid.UUID, changes map[string]interface{}) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.playerIndex(playerID) == -1 {
		return s.reject("update_rules", playerID, ErrPlayerNotFound)
	}
	if s.LeaderID != playerID {
		return s.reject("update_rules", playerID, ErrNotLeader)
	}
	if s.State == StatePlaying {
		return s.reject("update_rules", playerID, ErrRoundInProgress)
	}
	updated, err := ParseRules(changes, s.HouseRules)
	if err != nil {
		return s.reject("update_rules", playerID, fmt.Errorf("%w: %v", ErrInvalidRules, err))
	}
	s.HouseRules = updated

	s.logAction(playerID, models.GameAction{ActionType: models.ActionRulesUpdate, Payload: changes})
	s.fireEvent(GameEvent{
		Type:    EventRulesUpdate,
		Payload: map[string]interface{}{"rules": updated},
	})
	return nil
}

// Roster returns player names in turn order and the leader id.
func (s *GameSession) Roster() ([]string, uuid.UUID) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	names := make([]string, len(s.Players))
	for i, p := range s.Players {
		names[i] = p.Name
	}
	return names, s.LeaderID
}

// HasPlayer reports whether id holds a seat.
func (s *GameSession) HasPlayer(id uuid.UUID) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.playerIndex(id) != -1
}

// Summary describes the session for room listings.
func (s *GameSession) Summary() Summary {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return Summary{
		Room:      s.Room,
		SessionID: s.ID,
		State:     s.State,
		Players:   len(s.Players),
		Seats:     s.HouseRules.MaxPlayers,
	}
}

func sortSummaries(list []Summary) {
	sort.Slice(list, func(i, j int) bool { return list[i].Room < list[j].Room })
}
