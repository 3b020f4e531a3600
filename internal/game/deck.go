package game

import (
	"math/rand"

	"github.com/jason-s-yu/dutch/internal/models"
)

// DeckSize is the number of cards in play for a round: 52 ranked cards and two jokers.
const DeckSize = 54

// newDeck builds the full card set and shuffles it.
func newDeck(rng *rand.Rand) []*models.Card {
	deck := make([]*models.Card, 0, DeckSize)
	for _, suit := range models.Suits {
		for _, rank := range models.Ranks {
			deck = append(deck, models.NewCard(suit, rank))
		}
	}
	deck = append(deck,
		models.NewCard(models.SuitJoker, models.RankJoker),
		models.NewCard(models.SuitJoker, models.RankJoker),
	)
	shuffleCards(rng, deck)
	return deck
}

// shuffleCards permutes cards in place; rand.Shuffle is an unbiased Fisher-Yates.
func shuffleCards(rng *rand.Rand, cards []*models.Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// popDeck removes the top (last) card of the deck, or returns nil when it is empty.
func (s *GameSession) popDeck() *models.Card {
	n := len(s.Deck)
	if n == 0 {
		return nil
	}
	card := s.Deck[n-1]
	s.Deck = s.Deck[:n-1]
	return card
}

// drawCard takes the top card of the deck, recycling the discard pile first when the deck
// is empty. ok is false when neither pile can supply a card.
func (s *GameSession) drawCard() (card *models.Card, ok bool) {
	if len(s.Deck) == 0 && !s.recycleDiscard() {
		return nil, false
	}
	return s.popDeck(), true
}

// recycleDiscard shuffles every discard except the face-up top back into the deck.
func (s *GameSession) recycleDiscard() bool {
	n := len(s.DiscardPile)
	if n <= 1 {
		return false
	}
	top := s.DiscardPile[n-1]
	s.Deck = append(s.Deck, s.DiscardPile[:n-1]...)
	shuffleCards(s.rng, s.Deck)
	s.DiscardPile = []*models.Card{top}

	s.log.WithField("deck", len(s.Deck)).Debug("discard pile recycled into deck")
	s.announce("Deck empty: the discard pile was shuffled back in.")
	return true
}

// tuckUnderTop shuffles cards into the discard pile beneath its face-up top card.
func (s *GameSession) tuckUnderTop(cards []*models.Card) {
	if len(cards) == 0 {
		return
	}
	n := len(s.DiscardPile)
	if n == 0 {
		s.DiscardPile = append(s.DiscardPile, cards...)
		return
	}
	top := s.DiscardPile[n-1]
	pile := make([]*models.Card, 0, n+len(cards))
	pile = append(pile, s.DiscardPile[:n-1]...)
	pile = append(pile, cards...)
	shuffleCards(s.rng, pile)
	s.DiscardPile = append(pile, top)
}

func (s *GameSession) topDiscard() *models.Card {
	if len(s.DiscardPile) == 0 {
		return nil
	}
	return s.DiscardPile[len(s.DiscardPile)-1]
}
