package report

import (
	"io"

	"github.com/MJE43/busfahrer-sim/internal/games"
)

// Trace writes every guess and reshuffle of a replayed trial in play order.
func Trace(w io.Writer, cfg games.Config, rec *games.Recorder, res games.TrialResult) error {
	ew := &errWriter{w: w}
	ew.printf("%s\n", cfg)

	reshuffles := rec.Reshuffles
	for _, step := range rec.Steps {
		for len(reshuffles) > 0 && reshuffles[0].Deck <= step.Deck {
			ev := reshuffles[0]
			reshuffles = reshuffles[1:]
			ew.printf("-- deck %d, carried %v\n", ev.Deck, ev.Carried)
		}

		verdict := "wrong"
		if step.Correct {
			verdict = "right"
		}
		switch step.Kind {
		case games.GuessColor:
			ew.printf("deck %d pos %2d  color   signal %+.4f  guess %-5s%s  card %-5s %s\n",
				step.Deck, step.Position, step.Signal, colorName(step.Guess), tieMark(step.TieBreak), step.Card, verdict)
		default:
			ew.printf("deck %d pos %2d  %-5s -> signal %7.4f  guess %-5s%s  card %-5s %s\n",
				step.Deck, step.Position, step.Previous, step.Signal, directionName(step.Guess), tieMark(step.TieBreak), step.Card, verdict)
		}
	}

	if res.Won() {
		ew.printf("cleared after %d cards and %d boards\n", res.CardsEncountered, res.BoardsRefilled)
	} else {
		ew.printf("deck depleted after %d boards\n", res.BoardsRefilled)
	}
	return ew.err
}

func colorName(guess int) string {
	if guess > 0 {
		return "black"
	}
	return "red"
}

func directionName(guess int) string {
	if guess > 0 {
		return "higher"
	}
	return "lower"
}

func tieMark(tie bool) string {
	if tie {
		return "*"
	}
	return " "
}
