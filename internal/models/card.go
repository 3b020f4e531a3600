package models

import (
	"strconv"

	"github.com/google/uuid"
)

// Suits. The joker marker stands in for a suit on the two jokers.
const (
	SuitSpades   = "♠"
	SuitClubs    = "♣"
	SuitHearts   = "♥"
	SuitDiamonds = "♦"
	SuitJoker    = "🤡"
)

// Ranks carrying special meaning. Numeric ranks are "2" through "10".
const (
	RankAce   = "A"
	RankJack  = "J"
	RankQueen = "Q"
	RankKing  = "K"
	RankJoker = "Joker"
)

// Suits lists the four ranked suits in deck-building order.
var Suits = []string{SuitSpades, SuitClubs, SuitHearts, SuitDiamonds}

// Ranks lists the thirteen ranks dealt in each suit.
var Ranks = []string{RankAce, "2", "3", "4", "5", "6", "7", "8", "9", "10", RankJack, RankQueen, RankKing}

// Card is a single playing card. Value is the point value counted against the holder at round end.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Suit  string    `json:"suit"`
	Rank  string    `json:"rank"`
	Value int       `json:"value"`
}

// NewCard creates a card with a fresh identity and its point value fixed from suit and rank.
func NewCard(suit, rank string) *Card {
	return &Card{
		ID:    uuid.New(),
		Suit:  suit,
		Rank:  rank,
		Value: PointValue(suit, rank),
	}
}

// IsRed reports whether the card belongs to a red suit.
func (c *Card) IsRed() bool {
	return c.Suit == SuitHearts || c.Suit == SuitDiamonds
}

// PointValue maps a suit/rank pair onto its score.
// A=1, 2-10 face value, J and Q 13, red K 0, black K 13, Joker -3.
func PointValue(suit, rank string) int {
	switch rank {
	case RankAce:
		return 1
	case RankJack, RankQueen:
		return 13
	case RankKing:
		if suit == SuitHearts || suit == SuitDiamonds {
			return 0
		}
		return 13
	case RankJoker:
		return -3
	}
	n, err := strconv.Atoi(rank)
	if err != nil {
		return 0
	}
	return n
}
