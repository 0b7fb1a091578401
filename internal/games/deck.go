package games

import (
	"fmt"

	"github.com/MJE43/busfahrer-sim/internal/engine"
)

// DenominatorMode selects the divisor of the deck statistics.
type DenominatorMode string

const (
	// DenominatorDeck divides by the deck's own length even when remaining
	// board cards are included in the sum.
	DenominatorDeck DenominatorMode = "deck"
	// DenominatorCombined divides by deck plus remaining board length.
	DenominatorCombined DenominatorMode = "combined"
)

// Deck is an ordered, owned sequence of cards. Drawing takes from the
// front by reslicing, so a draw never copies the remaining cards.
type Deck struct {
	cards       []Card
	denominator DenominatorMode
}

// NewDeck builds the 52 standard cards (plus 3 jokers if requested) in
// suit/rank order and shuffles them with rng.
func NewDeck(jokers bool, rng engine.RNG) *Deck {
	d := newOrderedDeck(jokers)
	d.Shuffle(rng)
	return d
}

func newOrderedDeck(jokers bool) *Deck {
	cards := make([]Card, 0, DeckSize(jokers))
	for _, suit := range cardSuits {
		for rank := MinRank; rank <= MaxRank; rank++ {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	if jokers {
		for i := 0; i < JokerCount; i++ {
			cards = append(cards, Joker)
		}
	}
	return &Deck{cards: cards, denominator: DenominatorDeck}
}

// NewDeckFromCards returns an unshuffled deck holding a copy of cards.
func NewDeckFromCards(cards []Card) *Deck {
	return &Deck{
		cards:       append([]Card(nil), cards...),
		denominator: DenominatorDeck,
	}
}

// SetDenominator changes the divisor used by AverageColor and CompareValue.
func (d *Deck) SetDenominator(mode DenominatorMode) {
	if mode == "" {
		mode = DenominatorDeck
	}
	d.denominator = mode
}

// Shuffle applies a Fisher-Yates permutation driven by rng.
func (d *Deck) Shuffle(rng engine.RNG) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes and returns the first count cards.
func (d *Deck) Draw(count int) ([]Card, error) {
	if count < 0 || count > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDrawExceedsDeck, count, len(d.cards))
	}
	drawn := d.cards[:count:count]
	d.cards = d.cards[count:]
	return drawn, nil
}

// RemoveCards removes one structurally equal deck card for every card in
// toRemove (multiset difference). Cards not present are ignored.
func (d *Deck) RemoveCards(toRemove []Card) {
	if len(toRemove) == 0 {
		return
	}
	pending := make(map[Card]int, len(toRemove))
	for _, c := range toRemove {
		pending[c]++
	}

	kept := d.cards[:0]
	for _, c := range d.cards {
		if pending[c] > 0 {
			pending[c]--
			continue
		}
		kept = append(kept, c)
	}
	d.cards = kept
}

// AverageValue returns the mean Value of the remaining cards.
func (d *Deck) AverageValue() float64 {
	if len(d.cards) == 0 {
		return 0
	}
	sum := 0
	for _, c := range d.cards {
		sum += c.Value()
	}
	return float64(sum) / float64(len(d.cards))
}

// AverageColor returns the summed Color of the deck and remainingBoard
// divided by the configured denominator.
func (d *Deck) AverageColor(remainingBoard []Card) float64 {
	sum := 0
	for _, c := range d.cards {
		sum += c.Color()
	}
	for _, c := range remainingBoard {
		sum += c.Color()
	}
	return d.divide(sum, len(remainingBoard))
}

// CompareValue returns pivot plus the signed fraction of deck and
// remainingBoard cards above pivot (+1 above, -1 otherwise). A result above
// pivot means more unseen cards are higher than lower.
func (d *Deck) CompareValue(pivot int, remainingBoard []Card) float64 {
	sum := 0
	for _, c := range d.cards {
		sum += higherSign(c, pivot)
	}
	for _, c := range remainingBoard {
		sum += higherSign(c, pivot)
	}
	return float64(pivot) + d.divide(sum, len(remainingBoard))
}

func higherSign(c Card, pivot int) int {
	if c.Value() > pivot {
		return 1
	}
	return -1
}

func (d *Deck) divide(sum, extra int) float64 {
	n := len(d.cards)
	if d.denominator == DenominatorCombined {
		n += extra
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// String lists the remaining cards.
func (d *Deck) String() string {
	return fmt.Sprintf("%v", d.cards)
}
