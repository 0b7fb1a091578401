package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"

	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
	"github.com/MJE43/busfahrer-sim/internal/report"
)

func main() {
	serverSeed := flag.String("server-seed", "", "server seed (required)")
	clientSeed := flag.String("client-seed", "", "client seed")
	nonce := flag.Uint64("nonce", 0, "trial nonce")
	rngFlag := flag.String("rng", string(engine.ModeProvablyFair), "rng mode: provably_fair or pcg")
	board := flag.Int("board", 10, "board size")
	jokers := flag.Bool("jokers", true, "play with three jokers")
	memory := flag.Bool("memory", true, "guess from the remaining deck")
	reshuffle := flag.Bool("reshuffle", true, "rebuild the deck when it runs out")
	denominator := flag.String("denominator", string(games.DenominatorDeck), "deck statistic divisor: deck or combined")
	maxDecks := flag.Int("max-decks", 0, "abandon the trial after this many decks (0 = unlimited)")
	asJSON := flag.Bool("json", false, "print the trace as JSON")
	flag.Parse()

	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	if *serverSeed == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -server-seed <seed> [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := games.Config{
		BoardSize:   *board,
		Jokers:      *jokers,
		Memory:      *memory,
		Reshuffle:   *reshuffle,
		Denominator: games.DenominatorMode(*denominator),
		MaxDecks:    *maxDecks,
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	rng, err := engine.NewStream(engine.Mode(*rngFlag), engine.Seeds{Server: *serverSeed, Client: *clientSeed}, *nonce)
	if err != nil {
		logger.Error("invalid rng", "error", err)
		os.Exit(1)
	}

	rec := &games.Recorder{}
	res := games.Drive(cfg, rng, rec)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(map[string]any{
			"config":     cfg,
			"nonce":      *nonce,
			"result":     res,
			"won":        res.Won(),
			"steps":      rec.Steps,
			"reshuffles": rec.Reshuffles,
		})
	} else {
		err = report.Trace(os.Stdout, cfg, rec, res)
	}
	if err != nil {
		logger.Error("write trace", "error", err)
		os.Exit(1)
	}
}
