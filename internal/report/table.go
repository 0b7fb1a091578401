package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/MJE43/busfahrer-sim/internal/scan"
)

var tableHeader = []string{"Board", "Jokers", "Memory", "Reshuffle", "Trials", "Avg cards", "Avg boards", "Win %", "Max boards"}

// Table renders one row per configuration.
func Table(w io.Writer, entries []scan.Entry) error {
	data := pterm.TableData{tableHeader}
	for _, e := range entries {
		data = append(data, []string{
			strconv.Itoa(e.Config.BoardSize),
			yesNo(e.Config.Jokers),
			yesNo(e.Config.Memory),
			yesNo(e.Config.Reshuffle),
			humanize.Comma(int64(e.Summary.Trials)),
			MeanCards(e.Summary),
			MeanBoards(e.Summary),
			WinPercent(e.Summary),
			humanize.Comma(int64(e.Summary.MaxBoards)),
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Footer summarizes a finished sweep in one line.
func Footer(w io.Writer, res *scan.SweepResult) error {
	var trials uint64
	for _, e := range res.Entries {
		trials += e.Summary.Trials
	}
	line := fmt.Sprintf("%s trials over %d configurations in %s",
		humanize.Comma(int64(trials)), len(res.Entries), res.Duration.Round(time.Millisecond))
	if res.TimedOut {
		line += " (timed out)"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
