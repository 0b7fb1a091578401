package report

import (
	"fmt"
	"io"

	"github.com/MJE43/busfahrer-sim/internal/scan"
)

// Text writes the classic console report: one block per board size and
// deck, one paragraph per reshuffle/memory combination. Reshuffle runs
// report average cards, the others report the win chance.
func Text(w io.Writer, entries []scan.Entry) error {
	ew := &errWriter{w: w}

	var last *scan.Entry
	for i := range entries {
		e := &entries[i]
		if last == nil || last.Config.BoardSize != e.Config.BoardSize || last.Config.Jokers != e.Config.Jokers {
			ew.printf("%d-Card Busfahrer %s\n", e.Config.BoardSize, with(e.Config.Jokers, "jokers"))
		}
		last = e

		ew.printf("With%s memorizing encountered cards and with%s reshuffling after deck is depleted\n",
			suffix(e.Config.Memory), suffix(e.Config.Reshuffle))
		if e.Config.Reshuffle {
			ew.printf("\tAverage cards encountered: %s\n", MeanCards(e.Summary))
		} else {
			ew.printf("\tChance of winning before deck is depleted: %s%%\n", WinPercent(e.Summary))
		}
		ew.printf("\tAverage boards refilled (≣ Schlücke): %s\n", MeanBoards(e.Summary))
		if e.Summary.TimedOut {
			ew.printf("\t(timed out after %d trials)\n", e.Summary.Trials)
		}
	}
	return ew.err
}

func with(b bool, what string) string {
	if b {
		return "with " + what
	}
	return "without " + what
}

func suffix(b bool) string {
	if b {
		return ""
	}
	return "out"
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
