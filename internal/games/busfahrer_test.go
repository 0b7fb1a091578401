package games

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MJE43/busfahrer-sim/internal/engine"
)

// scriptedRNG replays values and then answers fallback (clamped to n-1).
type scriptedRNG struct {
	values   []int
	idx      int
	fallback int
}

func (r *scriptedRNG) IntN(n int) int {
	if r.idx < len(r.values) {
		v := r.values[r.idx]
		r.idx++
		if v >= n {
			panic(fmt.Sprintf("scripted value %d out of range [0, %d)", v, n))
		}
		return v
	}
	if r.fallback >= n {
		return n - 1
	}
	return r.fallback
}

// shuffleScript returns the Fisher-Yates choices that turn an ordered deck
// into top followed by the remaining cards in build order.
func shuffleScript(t *testing.T, jokers bool, top []Card) []int {
	t.Helper()
	cur := newOrderedDeck(jokers).cards

	rest := append([]Card(nil), cur...)
	for _, c := range top {
		found := false
		for i, r := range rest {
			if r == c {
				rest = append(rest[:i], rest[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("card %v not in deck", c)
		}
	}
	desired := append(append([]Card(nil), top...), rest...)

	var script []int
	for i := len(cur) - 1; i > 0; i-- {
		j := -1
		for k := 0; k <= i; k++ {
			if cur[k] == desired[i] {
				j = k
				break
			}
		}
		script = append(script, j)
		cur[i], cur[j] = cur[j], cur[i]
	}
	return script
}

func card(s Suit, r int) Card { return Card{Suit: s, Rank: r} }

func TestShuffleScript(t *testing.T) {
	top := []Card{card(Hearts, 7), card(Spades, 2), Joker}
	rng := &scriptedRNG{values: shuffleScript(t, true, top)}
	deck := NewDeck(true, rng)
	for i, c := range top {
		if deck.cards[i] != c {
			t.Fatalf("position %d: got %v, want %v", i, deck.cards[i], c)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"valid", Config{BoardSize: 10, Jokers: true}, nil},
		{"smallest board", Config{BoardSize: 1}, nil},
		{"largest standard board", Config{BoardSize: 51}, nil},
		{"largest joker board", Config{BoardSize: 54, Jokers: true}, nil},
		{"zero board", Config{BoardSize: 0}, ErrInvalidBoardSize},
		{"negative board", Config{BoardSize: -3}, ErrInvalidBoardSize},
		{"board equals deck", Config{BoardSize: 52}, ErrBoardExceedsDeck},
		{"board equals deck with reshuffle", Config{BoardSize: 55, Jokers: true, Reshuffle: true}, ErrBoardExceedsDeck},
		{"combined denominator", Config{BoardSize: 4, Denominator: DenominatorCombined}, nil},
		{"bad denominator", Config{BoardSize: 4, Denominator: "median"}, ErrInvalidDenominator},
		{"negative max decks", Config{BoardSize: 4, MaxDecks: -1}, ErrInvalidMaxDecks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunTrialRejectsInvalidConfig(t *testing.T) {
	_, err := RunTrial(Config{BoardSize: 0}, &scriptedRNG{})
	if !errors.Is(err, ErrInvalidBoardSize) {
		t.Fatalf("expected ErrInvalidBoardSize, got %v", err)
	}
}

func TestDriveRefillsBoardInPlace(t *testing.T) {
	// Coin flips answer 1: black on color ties, higher on value ties.
	top := []Card{
		card(Spades, 2), card(Spades, 5), card(Spades, 3), // fails at position 2
		card(Hearts, 4),                  // red: fails the color guess
		card(Spades, 9), card(Spades, 7), // carried over
		card(Spades, 13), // redrawn into position 0
	}
	rng := &scriptedRNG{values: shuffleScript(t, false, top), fallback: 1}
	rec := &Recorder{}

	got := Drive(Config{BoardSize: 3}, rng, rec)

	want := TrialResult{CardsEncountered: 3 + 1 + 3, BoardsRefilled: 3}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	wantCards := []Card{
		card(Spades, 2), card(Spades, 5), card(Spades, 3),
		card(Hearts, 4),
		card(Spades, 13), card(Spades, 9), card(Spades, 7),
	}
	if len(rec.Steps) != len(wantCards) {
		t.Fatalf("expected %d guesses, got %d", len(wantCards), len(rec.Steps))
	}
	for i, step := range rec.Steps {
		if step.Card != wantCards[i] {
			t.Errorf("guess %d: card %v, want %v", i, step.Card, wantCards[i])
		}
	}
	// Static averages: color 0 (coin flip), value 8.
	if !rec.Steps[0].TieBreak || rec.Steps[0].Guess != 1 {
		t.Errorf("first color guess should be a tie-break for black: %+v", rec.Steps[0])
	}
	if rec.Steps[5].Guess != -1 || rec.Steps[5].Pivot != 13 {
		t.Errorf("expected a lower guess against K: %+v", rec.Steps[5])
	}
	if len(rec.Reshuffles) != 0 {
		t.Errorf("no reshuffle expected, got %d", len(rec.Reshuffles))
	}
}

func TestDriveMemoryColorSignal(t *testing.T) {
	// With memory the first guess counts the whole board as unseen. A
	// deck that opens with a heart still has a zero color sum overall.
	top := []Card{card(Hearts, 2)}
	rng := &scriptedRNG{values: shuffleScript(t, false, top), fallback: 0}
	rec := &Recorder{}

	got := Drive(Config{BoardSize: 1, Memory: true}, rng, rec)

	if len(rec.Steps) != 1 {
		t.Fatalf("expected one guess, got %d", len(rec.Steps))
	}
	step := rec.Steps[0]
	if step.Signal != 0 || !step.TieBreak {
		t.Fatalf("expected a zero signal tie-break, got %+v", step)
	}
	// fallback 0 flips to -1 (red), matching the heart.
	if step.Guess != -1 || !step.Correct {
		t.Fatalf("expected a correct red guess, got %+v", step)
	}
	if got != (TrialResult{CardsEncountered: 1, BoardsRefilled: 1}) {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestExactValueTieAlwaysLoses(t *testing.T) {
	for _, flip := range []int{0, 1} {
		for _, memory := range []bool{false, true} {
			t.Run(fmt.Sprintf("flip=%d memory=%v", flip, memory), func(t *testing.T) {
				tr := &trial{
					cfg:         Config{BoardSize: 2, Memory: memory},
					rng:         &scriptedRNG{fallback: flip},
					board:       []Card{card(Spades, 8), card(Hearts, 8)},
					deck:        NewDeckFromCards([]Card{card(Clubs, 2), card(Clubs, 14)}),
					staticValue: 8,
				}
				if tr.guessDirection(1) {
					t.Fatal("equal values must lose")
				}
			})
		}
	}
}

func TestGuessDirectionFollowsSignal(t *testing.T) {
	tr := &trial{
		cfg:   Config{BoardSize: 2, Memory: true},
		rng:   &scriptedRNG{},
		board: []Card{card(Spades, 5), card(Hearts, 11)},
		// Everything unseen is above 5: the player must say higher.
		deck: NewDeckFromCards([]Card{card(Clubs, 12), card(Clubs, 13)}),
	}
	rec := &Recorder{}
	tr.tracer = rec
	if !tr.guessDirection(1) {
		t.Fatal("expected a correct higher guess")
	}
	if rec.Steps[0].Guess != 1 || rec.Steps[0].TieBreak {
		t.Fatalf("unexpected step %+v", rec.Steps[0])
	}
}

func TestSingleCardBoardIsCoinFlip(t *testing.T) {
	const runs = 20000
	cfg := Config{BoardSize: 1}
	seeds := engine.Seeds{Server: "coin", Client: "flip"}

	firstTry := 0
	for i := 0; i < runs; i++ {
		rng, _ := engine.NewStream(engine.ModePCG, seeds, uint64(i))
		res, err := RunTrial(cfg, rng)
		if err != nil {
			t.Fatal(err)
		}
		if res.BoardsRefilled < 1 {
			t.Fatalf("trial %d: BoardsRefilled %d", i, res.BoardsRefilled)
		}
		if res.Won() && res.CardsEncountered != res.BoardsRefilled {
			t.Fatalf("trial %d: one card per attempt expected, got %+v", i, res)
		}
		if res.BoardsRefilled == 1 {
			firstTry++
		}
	}
	rate := float64(firstTry) / runs
	// sd = 0.0035; allow about 5.7 sd.
	if rate < 0.48 || rate > 0.52 {
		t.Errorf("first attempt cleared %.4f of the time, want about 0.5", rate)
	}
}

func TestTieBreakFairness(t *testing.T) {
	const runs = 20000
	seeds := engine.Seeds{Server: "tie", Client: "break"}
	black := 0
	ties := 0
	for i := 0; i < runs; i++ {
		rng, _ := engine.NewStream(engine.ModeProvablyFair, seeds, uint64(i))
		rec := &Recorder{}
		Drive(Config{BoardSize: 1}, rng, rec)
		for _, s := range rec.Steps {
			if !s.TieBreak {
				t.Fatalf("trial %d: static color guess on a balanced deck must be a tie-break: %+v", i, s)
			}
			ties++
			if s.Guess == 1 {
				black++
			}
		}
	}
	frac := float64(black) / float64(ties)
	if frac < 0.48 || frac > 0.52 {
		t.Errorf("tie-break chose black %.4f of the time, want about 0.5", frac)
	}
}

func TestAllModesTerminate(t *testing.T) {
	seeds := engine.Seeds{Server: "modes", Client: "all"}
	for _, reshuffle := range []bool{false, true} {
		for _, memory := range []bool{false, true} {
			cfg := Config{BoardSize: 10, Jokers: true, Memory: memory, Reshuffle: reshuffle}
			t.Run(cfg.String(), func(t *testing.T) {
				for i := 0; i < 200; i++ {
					rng, _ := engine.NewStream(engine.ModePCG, seeds, uint64(i))
					rec := &Recorder{}
					res := Drive(cfg, rng, rec)

					if res.BoardsRefilled < 1 {
						t.Fatalf("trial %d: BoardsRefilled %d", i, res.BoardsRefilled)
					}
					if !reshuffle && len(rec.Reshuffles) != 0 {
						t.Fatalf("trial %d reshuffled without reshuffle mode", i)
					}
					if reshuffle && !res.Won() {
						t.Fatalf("trial %d: unlimited reshuffle must end in a clear, got %+v", i, res)
					}

					attempts := 0
					perDeck := map[int]int{}
					for _, s := range rec.Steps {
						if s.Position == 0 {
							attempts++
							perDeck[s.Deck]++
						}
					}
					if attempts != res.BoardsRefilled {
						t.Fatalf("trial %d: %d attempts traced, %d boards counted", i, attempts, res.BoardsRefilled)
					}
					// A deck is never drawn empty and each redraw takes at least
					// one card, so it serves at most DeckSize-BoardSize attempts.
					if len(perDeck) != len(rec.Reshuffles)+1 {
						t.Fatalf("trial %d: attempts on %d decks, %d reshuffles", i, len(perDeck), len(rec.Reshuffles))
					}
					for deck, n := range perDeck {
						if limit := DeckSize(cfg.Jokers) - cfg.BoardSize; n > limit {
							t.Fatalf("trial %d: %d attempts on deck %d, limit %d", i, n, deck, limit)
						}
					}
					if res.Won() && len(rec.Steps) != res.CardsEncountered {
						t.Fatalf("trial %d: %d guesses traced, %d cards counted", i, len(rec.Steps), res.CardsEncountered)
					}
				}
			})
		}
	}
}

func TestReshuffleCarriesBoardSuffix(t *testing.T) {
	seeds := engine.Seeds{Server: "carry"}
	found := false
	for i := 0; i < 50 && !found; i++ {
		rng, _ := engine.NewStream(engine.ModePCG, seeds, uint64(i))
		rec := &Recorder{}
		Drive(Config{BoardSize: 12, Reshuffle: true}, rng, rec)
		for _, ev := range rec.Reshuffles {
			if len(ev.Carried) >= 12 {
				t.Fatalf("carried %d cards from a 12 card board", len(ev.Carried))
			}
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one reshuffle with board size 12")
	}
}

func TestMaxDecksAbandonsTrial(t *testing.T) {
	seeds := engine.Seeds{Server: "cap"}
	cfg := Config{BoardSize: 14, Reshuffle: true, MaxDecks: 1}
	for i := 0; i < 100; i++ {
		rng, _ := engine.NewStream(engine.ModePCG, seeds, uint64(i))
		rec := &Recorder{}
		res := Drive(cfg, rng, rec)
		if len(rec.Reshuffles) != 0 {
			t.Fatalf("trial %d built a second deck with MaxDecks=1", i)
		}
		if !res.Won() && res.BoardsRefilled < 1 {
			t.Fatalf("trial %d: unexpected result %+v", i, res)
		}
	}
}

func TestNoReshuffleLossResetsCards(t *testing.T) {
	seeds := engine.Seeds{Server: "loss"}
	sawLoss := false
	for i := 0; i < 200; i++ {
		rng, _ := engine.NewStream(engine.ModePCG, seeds, uint64(i))
		res := Drive(Config{BoardSize: 15, Jokers: true}, rng, nil)
		if !res.Won() {
			sawLoss = true
			if res.CardsEncountered != 0 {
				t.Fatalf("lost trial must report 0 cards, got %d", res.CardsEncountered)
			}
			if res.BoardsRefilled < 1 {
				t.Fatalf("lost trial keeps its board count, got %d", res.BoardsRefilled)
			}
		}
	}
	if !sawLoss {
		t.Fatal("expected at least one lost 15 card trial")
	}
}

func TestRunTrialReproducible(t *testing.T) {
	cfg := Config{BoardSize: 8, Jokers: true, Memory: true, Reshuffle: true}
	seeds := engine.Seeds{Server: "server", Client: "client"}
	for _, mode := range engine.Modes() {
		for nonce := uint64(0); nonce < 20; nonce++ {
			r1, _ := engine.NewStream(mode, seeds, nonce)
			r2, _ := engine.NewStream(mode, seeds, nonce)
			a, err := RunTrial(cfg, r1)
			if err != nil {
				t.Fatal(err)
			}
			b, _ := RunTrial(cfg, r2)
			if a != b {
				t.Fatalf("%s nonce %d: %+v != %+v", mode, nonce, a, b)
			}
		}
	}
}

func TestConfigString(t *testing.T) {
	cfg := Config{BoardSize: 10, Jokers: true, Memory: true, Reshuffle: true}
	if got := cfg.String(); got != "board=10 jokers memory reshuffle" {
		t.Errorf("unexpected label %q", got)
	}
	if got := (Config{BoardSize: 3}).String(); got != "board=3" {
		t.Errorf("unexpected label %q", got)
	}
}

func TestCardBasics(t *testing.T) {
	tests := []struct {
		card  Card
		value int
		color int
		str   string
	}{
		{card(Spades, 10), 10, 1, "10♠"},
		{card(Clubs, 11), 11, 1, "J♣"},
		{card(Diamonds, 12), 12, -1, "Q♦"},
		{card(Hearts, 14), 14, -1, "A♥"},
		{Joker, 1, 1, "Joker"},
	}
	for _, tt := range tests {
		if tt.card.Value() != tt.value {
			t.Errorf("%v: value %d, want %d", tt.card, tt.card.Value(), tt.value)
		}
		if tt.card.Color() != tt.color {
			t.Errorf("%v: color %d, want %d", tt.card, tt.card.Color(), tt.color)
		}
		if tt.card.String() != tt.str {
			t.Errorf("String() = %q, want %q", tt.card.String(), tt.str)
		}
	}
	if card(Hearts, 5) != card(Hearts, 5) || card(Hearts, 5) == card(Diamonds, 5) {
		t.Error("card equality must be structural")
	}
}
