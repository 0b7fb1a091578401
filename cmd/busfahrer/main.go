package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"go.uber.org/multierr"

	"github.com/MJE43/busfahrer-sim/internal/api"
	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
	"github.com/MJE43/busfahrer-sim/internal/report"
	"github.com/MJE43/busfahrer-sim/internal/scan"
	"github.com/MJE43/busfahrer-sim/internal/store"
)

func main() {
	boardsFlag := flag.String("boards", "", "comma-separated board sizes (overrides -min-board/-max-board)")
	minBoard := flag.Int("min-board", scan.DefaultMinBoard, "smallest board size")
	maxBoard := flag.Int("max-board", scan.DefaultMaxBoard, "board sizes run up to but excluding this value")
	trials := flag.Uint64("trials", scan.DefaultTrials, "trials per configuration")
	jokersFlag := flag.String("jokers", "true", "joker settings to sweep, e.g. true,false")
	memoryFlag := flag.String("memory", "true,false", "memory settings to sweep")
	reshuffleFlag := flag.String("reshuffle", "true,false", "reshuffle settings to sweep")
	serverSeed := flag.String("server-seed", "", "server seed (random when empty)")
	clientSeed := flag.String("client-seed", "", "client seed")
	rngFlag := flag.String("rng", string(engine.ModeProvablyFair), "rng mode: provably_fair or pcg")
	denominator := flag.String("denominator", string(games.DenominatorDeck), "deck statistic divisor: deck or combined")
	maxDecks := flag.Int("max-decks", 0, "abandon a trial after this many decks (0 = unlimited)")
	concurrency := flag.Int("concurrency", scan.DefaultConcurrency, "configurations run at once")
	format := flag.String("format", "table", "output format: table or text")
	chart := flag.Bool("chart", false, "draw one bar chart per series")
	csvPath := flag.String("csv", "", "also write the results as CSV to this file")
	dbPath := flag.String("db", "", "persist the sweep to this sqlite database")
	timeout := flag.Duration("timeout", 0, "stop the sweep after this duration and report partial results")
	flag.Parse()

	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	req := scan.SweepRequest{
		MinBoard:    *minBoard,
		MaxBoard:    *maxBoard,
		Trials:      *trials,
		Seeds:       engine.Seeds{Server: *serverSeed, Client: *clientSeed},
		Mode:        engine.Mode(*rngFlag),
		Denominator: games.DenominatorMode(*denominator),
		MaxDecks:    *maxDecks,
		Concurrency: *concurrency,
		TimeoutMs:   int(*timeout / time.Millisecond),
	}
	var err error
	if req.Boards, err = parseInts(*boardsFlag); err != nil {
		fail(logger, "invalid -boards", err)
	}
	if req.Jokers, err = parseBools(*jokersFlag); err != nil {
		fail(logger, "invalid -jokers", err)
	}
	if req.Memory, err = parseBools(*memoryFlag); err != nil {
		fail(logger, "invalid -memory", err)
	}
	if req.Reshuffle, err = parseBools(*reshuffleFlag); err != nil {
		fail(logger, "invalid -reshuffle", err)
	}
	if req.Seeds.Server == "" {
		req.Seeds.Server = uuid.NewString()
		logger.Info("generated server seed", "server_seed", req.Seeds.Server)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Running sweep ...")
	req.Progress = func(done, total int, e scan.Entry) {
		spinner.UpdateText(fmt.Sprintf("Running sweep ... %d/%d (%s)", done, total, e.Config))
	}

	res, err := scan.NewScanner().Sweep(ctx, req)
	if err != nil {
		spinner.Fail()
		fail(logger, "sweep failed", err)
	}
	_ = spinner.Stop()

	switch *format {
	case "text":
		err = report.Text(os.Stdout, res.Entries)
	default:
		err = report.Table(os.Stdout, res.Entries)
	}
	if err == nil && *chart {
		err = report.Chart(os.Stdout, res.Entries)
	}
	if err == nil {
		err = report.Footer(os.Stdout, res)
	}
	if err != nil {
		fail(logger, "write report", err)
	}

	if *csvPath != "" {
		if err := writeCSV(*csvPath, res.Entries); err != nil {
			fail(logger, "write csv", err)
		}
		logger.Info("csv written", "path", *csvPath)
	}

	if *dbPath != "" {
		id, err := save(context.WithoutCancel(ctx), *dbPath, res)
		if err != nil {
			fail(logger, "save sweep", err)
		}
		pterm.Success.Printfln("Sweep saved as %s", id)
	}

	if res.TimedOut {
		logger.Warn("sweep stopped early; results are partial")
	}
}

func fail(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func writeCSV(path string, entries []scan.Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return report.CSV(f, entries)
}

func save(ctx context.Context, path string, res *scan.SweepResult) (string, error) {
	db, err := store.NewSQLiteDB(path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return "", err
	}
	sweep, results, err := store.NewSweepRecord(res, api.EngineVersion)
	if err != nil {
		return "", err
	}
	if err := db.SaveSweep(ctx, sweep, results); err != nil {
		return "", err
	}
	return sweep.ID, nil
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseBools(s string) ([]bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []bool
	for _, part := range strings.Split(s, ",") {
		b, err := strconv.ParseBool(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
