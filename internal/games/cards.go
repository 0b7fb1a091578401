package games

import "strconv"

// Suit is one of the four French suits.
type Suit uint8

const (
	Spades Suit = iota
	Clubs
	Diamonds
	Hearts
)

// Suits in deck build order.
var cardSuits = [...]Suit{Spades, Clubs, Diamonds, Hearts}

var suitSymbols = [...]string{"♠", "♣", "♦", "♥"}

// String returns the suit symbol.
func (s Suit) String() string {
	if int(s) < len(suitSymbols) {
		return suitSymbols[s]
	}
	return "?"
}

const (
	// JokerRank is the reserved rank of the wildcard.
	JokerRank = 1
	MinRank   = 2
	MaxRank   = 14

	// StandardDeckSize is the card count without jokers.
	StandardDeckSize = 52
	// JokerCount is the number of jokers added to a joker deck.
	JokerCount = 3
)

// Joker is the wildcard card. All jokers are equal to each other.
var Joker = Card{Suit: Spades, Rank: JokerRank}

// Card is an immutable playing card. Equality is structural, so two cards
// with the same suit and rank are interchangeable.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// Value returns the rank used for higher/lower comparison (joker = 1).
func (c Card) Value() int {
	return c.Rank
}

// Color returns +1 for spades and clubs, -1 for diamonds and hearts. The
// joker carries the spades suit and therefore counts as +1.
func (c Card) Color() int {
	if c.Suit == Spades || c.Suit == Clubs {
		return 1
	}
	return -1
}

// IsJoker reports whether c is the wildcard.
func (c Card) IsJoker() bool {
	return c.Rank == JokerRank
}

// String returns a human-readable card representation like "10♠" or "Q♥".
func (c Card) String() string {
	if c.IsJoker() {
		return "Joker"
	}
	return rankString(c.Rank) + c.Suit.String()
}

func rankString(rank int) string {
	switch rank {
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	case 14:
		return "A"
	default:
		return strconv.Itoa(rank)
	}
}

// DeckSize returns the card count of a freshly built deck.
func DeckSize(jokers bool) int {
	if jokers {
		return StandardDeckSize + JokerCount
	}
	return StandardDeckSize
}
