package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/MJE43/busfahrer-sim/internal/games"
	"github.com/MJE43/busfahrer-sim/internal/scan"
)

var csvHeader = []string{
	"board_size", "jokers", "memory", "reshuffle", "denominator", "max_decks",
	"trials", "wins", "win_chance_pct", "mean_cards", "mean_boards", "max_boards", "timed_out",
}

// CSV writes one record per configuration.
func CSV(w io.Writer, entries []scan.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		denominator := e.Config.Denominator
		if denominator == "" {
			denominator = games.DenominatorDeck
		}
		record := []string{
			strconv.Itoa(e.Config.BoardSize),
			strconv.FormatBool(e.Config.Jokers),
			strconv.FormatBool(e.Config.Memory),
			strconv.FormatBool(e.Config.Reshuffle),
			string(denominator),
			strconv.Itoa(e.Config.MaxDecks),
			strconv.FormatUint(e.Summary.Trials, 10),
			strconv.FormatUint(e.Summary.Wins, 10),
			ratio(e.Summary.Wins, e.Summary.Trials, 100, 4),
			ratio(e.Summary.CardsTotal, e.Summary.Trials, 1, 4),
			ratio(e.Summary.BoardsTotal, e.Summary.Trials, 1, 4),
			strconv.Itoa(e.Summary.MaxBoards),
			strconv.FormatBool(e.Summary.TimedOut),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
