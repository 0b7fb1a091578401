package store

import (
	"encoding/json"
	"fmt"

	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
	"github.com/MJE43/busfahrer-sim/internal/scan"
)

// NewSweepRecord converts a finished sweep into its stored form. The raw
// server seed is dropped; only its hash is kept.
func NewSweepRecord(res *scan.SweepResult, engineVersion string) (*Sweep, []Result, error) {
	echo := res.Echo
	serverHash := engine.HashSeed(echo.Seeds.Server)
	echo.Seeds.Server = ""
	requestJSON, err := json.Marshal(echo)
	if err != nil {
		return nil, nil, fmt.Errorf("encode sweep request: %w", err)
	}

	sweep := &Sweep{
		ServerSeedHash: serverHash,
		ClientSeed:     echo.Seeds.Client,
		RNGMode:        string(echo.Mode),
		Trials:         echo.Trials,
		Denominator:    string(echo.Denominator),
		MaxDecks:       echo.MaxDecks,
		RequestJSON:    string(requestJSON),
		TimedOut:       res.TimedOut,
		DurationMs:     res.Duration.Milliseconds(),
		EngineVersion:  engineVersion,
	}

	results := make([]Result, len(res.Entries))
	for i, e := range res.Entries {
		results[i] = Result{
			Position:    i,
			BoardSize:   e.Config.BoardSize,
			Jokers:      e.Config.Jokers,
			Memory:      e.Config.Memory,
			Reshuffle:   e.Config.Reshuffle,
			Trials:      e.Summary.Trials,
			Wins:        e.Summary.Wins,
			CardsTotal:  e.Summary.CardsTotal,
			BoardsTotal: e.Summary.BoardsTotal,
			MaxBoards:   e.Summary.MaxBoards,
			TimedOut:    e.Summary.TimedOut,
		}
	}
	return sweep, results, nil
}

// Entries rebuilds the sweep entries from stored totals.
func Entries(sweep *Sweep, results []Result) []scan.Entry {
	entries := make([]scan.Entry, len(results))
	for i, r := range results {
		t := scan.Totals{
			Trials:    r.Trials,
			Wins:      r.Wins,
			Cards:     r.CardsTotal,
			Boards:    r.BoardsTotal,
			MaxBoards: r.MaxBoards,
		}
		summary := t.Summary()
		summary.TimedOut = r.TimedOut
		entries[i] = scan.Entry{
			Config: games.Config{
				BoardSize:   r.BoardSize,
				Jokers:      r.Jokers,
				Memory:      r.Memory,
				Reshuffle:   r.Reshuffle,
				Denominator: games.DenominatorMode(sweep.Denominator),
				MaxDecks:    sweep.MaxDecks,
			},
			Summary: summary,
		}
	}
	return entries
}
