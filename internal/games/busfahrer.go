package games

import (
	"fmt"
	"strings"

	"github.com/MJE43/busfahrer-sim/internal/engine"
)

// Config selects the rule variant of one Busfahrer trial.
type Config struct {
	BoardSize int  `json:"board_size"`
	Jokers    bool `json:"jokers"`
	// Memory recomputes the guess signal from the live deck plus the
	// unrevealed board suffix before every guess. Without it the player
	// only knows the pre-game deck averages.
	Memory bool `json:"memory"`
	// Reshuffle builds a new deck (minus the cards still on the board)
	// whenever the current one cannot refill the board.
	Reshuffle   bool            `json:"reshuffle"`
	Denominator DenominatorMode `json:"denominator,omitempty"`
	// MaxDecks caps the decks a reshuffle trial may use; 0 means no cap.
	MaxDecks int `json:"max_decks,omitempty"`
}

// Validate reports configuration errors that make a first deal impossible.
func (c Config) Validate() error {
	if c.BoardSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBoardSize, c.BoardSize)
	}
	if size := DeckSize(c.Jokers); c.BoardSize >= size {
		return fmt.Errorf("%w: board %d, deck %d", ErrBoardExceedsDeck, c.BoardSize, size)
	}
	switch c.Denominator {
	case "", DenominatorDeck, DenominatorCombined:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDenominator, c.Denominator)
	}
	if c.MaxDecks < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDecks, c.MaxDecks)
	}
	return nil
}

// String returns a compact label such as "board=10 jokers memory reshuffle".
func (c Config) String() string {
	parts := []string{fmt.Sprintf("board=%d", c.BoardSize)}
	if c.Jokers {
		parts = append(parts, "jokers")
	}
	if c.Memory {
		parts = append(parts, "memory")
	}
	if c.Reshuffle {
		parts = append(parts, "reshuffle")
	}
	if c.Denominator == DenominatorCombined {
		parts = append(parts, "combined")
	}
	return strings.Join(parts, " ")
}

// TrialResult holds the running totals of one trial.
type TrialResult struct {
	// CardsEncountered sums the positions processed over all board
	// attempts. It is forced to 0 when the trial never clears a board.
	CardsEncountered int `json:"cards_encountered"`
	// BoardsRefilled counts board attempts, including the final clear.
	BoardsRefilled int `json:"boards_refilled"`
}

// Won reports whether the trial ended with a full clear.
func (r TrialResult) Won() bool {
	return r.CardsEncountered > 0
}

// RunTrial validates cfg and plays one trial with rng.
func RunTrial(cfg Config, rng engine.RNG) (TrialResult, error) {
	if err := cfg.Validate(); err != nil {
		return TrialResult{}, err
	}
	return Drive(cfg, rng, nil), nil
}

// Drive plays one trial. cfg must be valid; tracer may be nil.
func Drive(cfg Config, rng engine.RNG, tracer Tracer) TrialResult {
	t := &trial{
		cfg:    cfg,
		rng:    rng,
		tracer: tracer,
		board:  make([]Card, cfg.BoardSize),
	}
	return t.run()
}

type trial struct {
	cfg    Config
	rng    engine.RNG
	tracer Tracer

	deck  *Deck
	decks int
	board []Card

	staticColor float64
	staticValue float64
}

func (t *trial) newDeck() {
	t.deck = NewDeck(t.cfg.Jokers, t.rng)
	t.deck.SetDenominator(t.cfg.Denominator)
	t.decks++
}

func (t *trial) run() TrialResult {
	var result TrialResult

	t.newDeck()
	t.staticColor = t.deck.AverageColor(nil)
	t.staticValue = t.deck.AverageValue()

	cleared := t.cfg.BoardSize
	for {
		for t.deck.Len() > cleared {
			drawn, err := t.deck.Draw(cleared)
			if err != nil {
				// Unreachable: the loop guard keeps cleared < Len().
				panic(err)
			}
			copy(t.board, drawn)

			var ok bool
			cleared, ok = t.attempt()
			result.CardsEncountered += cleared
			result.BoardsRefilled++
			if ok {
				return result
			}
		}

		if !t.cfg.Reshuffle {
			break
		}
		if t.cfg.MaxDecks > 0 && t.decks >= t.cfg.MaxDecks {
			break
		}

		carried := append([]Card(nil), t.board[cleared:]...)
		t.newDeck()
		t.deck.RemoveCards(carried)
		if t.tracer != nil {
			t.tracer.Reshuffle(t.decks, carried)
		}
	}

	result.CardsEncountered = 0
	return result
}

// attempt walks the board left to right. It returns the number of
// positions processed and whether every guess was correct.
func (t *trial) attempt() (int, bool) {
	for cleared := 0; cleared < t.cfg.BoardSize; cleared++ {
		var correct bool
		if cleared == 0 {
			correct = t.guessColor()
		} else {
			correct = t.guessDirection(cleared)
		}
		if !correct {
			return cleared + 1, false
		}
	}
	return t.cfg.BoardSize, true
}

func (t *trial) guessColor() bool {
	signal := t.staticColor
	if t.cfg.Memory {
		signal = t.deck.AverageColor(t.board)
	}

	var guess int
	tie := false
	switch {
	case signal > 0:
		guess = 1
	case signal < 0:
		guess = -1
	default:
		guess, tie = 2*t.rng.IntN(2)-1, true
	}

	card := t.board[0]
	correct := card.Color() == guess
	if t.tracer != nil {
		t.tracer.Guess(Step{
			Deck:     t.decks,
			Position: 0,
			Kind:     GuessColor,
			Signal:   signal,
			Guess:    guess,
			TieBreak: tie,
			Card:     card,
			Correct:  correct,
		})
	}
	return correct
}

func (t *trial) guessDirection(pos int) bool {
	prev := t.board[pos-1]
	pivot := prev.Value()

	signal := t.staticValue
	if t.cfg.Memory {
		signal = t.deck.CompareValue(pivot, t.board[pos:])
	}

	var higher, tie bool
	switch {
	case signal > float64(pivot):
		higher = true
	case signal < float64(pivot):
		higher = false
	default:
		higher, tie = t.rng.IntN(2) == 1, true
	}

	card := t.board[pos]
	// Equal values lose in both directions.
	correct := (card.Value() > pivot && higher) || (card.Value() < pivot && !higher)
	if t.tracer != nil {
		guess := -1
		if higher {
			guess = 1
		}
		t.tracer.Guess(Step{
			Deck:     t.decks,
			Position: pos,
			Kind:     GuessHigherLower,
			Signal:   signal,
			Pivot:    pivot,
			Guess:    guess,
			TieBreak: tie,
			Previous: prev,
			Card:     card,
			Correct:  correct,
		})
	}
	return correct
}
