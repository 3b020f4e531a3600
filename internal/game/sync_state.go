// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/dutch/internal/models"
)

// CardView is a card as one viewer may see it. Hidden cards carry no identity at all.
type CardView struct {
	ID    string `json:"id,omitempty"`
	Suit  string `json:"suit,omitempty"`
	Rank  string `json:"rank,omitempty"`
	Value int    `json:"value"`
	Back  bool   `json:"back,omitempty"`
}

// PlayerView is one seat from the perspective of the viewer.
type PlayerView struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Hand         []CardView `json:"hand"`
	KnownIndices []int      `json:"knownIndices,omitempty"` // the viewer's own, or everyone's once ended
	RoundScore   *int       `json:"roundScore"`
	TotalScore   int        `json:"totalScore"`
	IsCurrent    bool       `json:"isCurrent"`
	IsLeader     bool       `json:"isLeader"`
	CalledDutch  bool       `json:"calledDutch"`
}

// View is the masked snapshot sent to a single viewer.
type View struct {
	SessionID       uuid.UUID    `json:"sessionId"`
	Room            string       `json:"room"`
	State           State        `json:"state"`
	Players         []PlayerView `json:"players"`
	CurrentPlayerID uuid.UUID    `json:"currentPlayerId"`
	LeaderID        uuid.UUID    `json:"leaderId"`
	DeckCount       int          `json:"deckCount"`
	DiscardPile     []CardView   `json:"discardPile"`
	HasDrawn        bool         `json:"hasDrawn"`
	DrawnCard       *CardView    `json:"drawnCard,omitempty"` // only for the player holding it
	Power           *PowerState  `json:"power,omitempty"`
	DutchCallerID   *uuid.UUID   `json:"dutchCallerId,omitempty"`
	LastRoundActive bool         `json:"lastRoundActive"`
	EndingSoon      bool         `json:"endingSoon"`
	Rules           HouseRules   `json:"rules"`
}

var hiddenCard = CardView{Back: true}

func openCard(c *models.Card) CardView {
	return CardView{ID: c.ID.String(), Suit: c.Suit, Rank: c.Rank, Value: c.Value}
}

// Project renders the session for viewer. It reads but never mutates s and shares no
// slices with it; the caller must hold s.Mu.
func Project(s *GameSession, viewer uuid.UUID) View {
	ended := s.State == StateEnded
	v := View{
		SessionID:       s.ID,
		Room:            s.Room,
		State:           s.State,
		Players:         make([]PlayerView, 0, len(s.Players)),
		LeaderID:        s.LeaderID,
		DeckCount:       len(s.Deck),
		DiscardPile:     make([]CardView, len(s.DiscardPile)),
		HasDrawn:        s.DrawnCard != nil,
		LastRoundActive: s.LastRoundActive,
		EndingSoon:      s.endTask.pending(),
		Rules:           s.HouseRules,
	}

	cur := s.currentPlayer()
	if s.State == StatePlaying && cur != nil {
		v.CurrentPlayerID = cur.ID
		if s.DrawnCard != nil && cur.ID == viewer {
			dc := openCard(s.DrawnCard)
			v.DrawnCard = &dc
		}
	}
	if s.Power.Active() {
		pw := s.Power
		v.Power = &pw
	}
	if s.DutchCallerID != uuid.Nil {
		id := s.DutchCallerID
		v.DutchCallerID = &id
	}
	for i, c := range s.DiscardPile {
		v.DiscardPile[i] = openCard(c)
	}

	for _, p := range s.Players {
		own := p.ID == viewer
		pv := PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			Hand:        make([]CardView, len(p.Hand)),
			TotalScore:  p.TotalScore,
			IsCurrent:   cur != nil && cur.ID == p.ID && s.State == StatePlaying,
			IsLeader:    p.ID == s.LeaderID,
			CalledDutch: p.ID == s.DutchCallerID,
		}
		if p.RoundScore != nil {
			score := *p.RoundScore
			pv.RoundScore = &score
		}
		if own || ended {
			pv.KnownIndices = append([]int(nil), p.Known...)
		}
		for i, c := range p.Hand {
			if ended || (own && p.IsKnown(i)) {
				pv.Hand[i] = openCard(c)
			} else {
				pv.Hand[i] = hiddenCard
			}
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

// ViewFor locks the session and projects it for viewer.
func (s *GameSession) ViewFor(viewer uuid.UUID) View {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return Project(s, viewer)
}
