package models

import (
	"sort"

	"github.com/google/uuid"
)

// Player is a seat in a room. Hand order is positional: clients refer to cards by slot index.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Hand []*Card   `json:"hand"`

	// Known holds the sorted slot indices whose faces this player may currently see.
	Known []int `json:"knownIndices"`

	// RoundScore is nil until the round ends.
	RoundScore *int `json:"roundScore"`
	TotalScore int  `json:"totalScore"`
}

// NewPlayer builds an empty seat.
func NewPlayer(id uuid.UUID, name string) *Player {
	return &Player{
		ID:   id,
		Name: name,
		Hand: []*Card{},
	}
}

// IsKnown reports whether slot idx is known to the player.
func (p *Player) IsKnown(idx int) bool {
	for _, k := range p.Known {
		if k == idx {
			return true
		}
	}
	return false
}

// MarkKnown adds idx to the known set. Indices outside the hand are ignored.
func (p *Player) MarkKnown(idx int) {
	if idx < 0 || idx >= len(p.Hand) || p.IsKnown(idx) {
		return
	}
	p.Known = append(p.Known, idx)
	sort.Ints(p.Known)
}

// Forget removes idx from the known set.
func (p *Player) Forget(idx int) {
	out := p.Known[:0]
	for _, k := range p.Known {
		if k != idx {
			out = append(out, k)
		}
	}
	p.Known = out
}

// RemoveSlot takes the card at idx out of the hand and renumbers known indices above it.
func (p *Player) RemoveSlot(idx int) *Card {
	if idx < 0 || idx >= len(p.Hand) {
		return nil
	}
	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)

	out := p.Known[:0]
	for _, k := range p.Known {
		switch {
		case k == idx:
		case k > idx:
			out = append(out, k-1)
		default:
			out = append(out, k)
		}
	}
	p.Known = out
	return card
}

// RevealAll marks every slot of the hand as known.
func (p *Player) RevealAll() {
	p.Known = make([]int, len(p.Hand))
	for i := range p.Hand {
		p.Known[i] = i
	}
}

// HandValue sums the point values of the cards in hand.
func (p *Player) HandValue() int {
	total := 0
	for _, c := range p.Hand {
		total += c.Value
	}
	return total
}

// ResetRound clears per-round state. TotalScore carries over.
func (p *Player) ResetRound() {
	p.Hand = []*Card{}
	p.Known = nil
	p.RoundScore = nil
}
