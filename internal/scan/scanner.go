package scan

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
)

// Request describes a batch of trials of one configuration. Trial i uses
// the RNG stream of (Seeds, nonce i) for every nonce in [NonceStart, NonceEnd].
type Request struct {
	Config     games.Config `json:"config"`
	Seeds      engine.Seeds `json:"seeds"`
	Mode       engine.Mode  `json:"rng,omitempty"`
	NonceStart uint64       `json:"nonce_start"`
	NonceEnd   uint64       `json:"nonce_end"`
	TimeoutMs  int          `json:"timeout_ms,omitempty"`
}

// Trials returns the number of trials the request covers.
func (r Request) Trials() uint64 {
	if r.NonceEnd < r.NonceStart {
		return 0
	}
	return r.NonceEnd - r.NonceStart + 1
}

// Summary contains aggregate statistics of a batch.
type Summary struct {
	Trials      uint64  `json:"trials"`
	Wins        uint64  `json:"wins"`
	CardsTotal  uint64  `json:"cards_total"`
	BoardsTotal uint64  `json:"boards_total"`
	MaxBoards   int     `json:"max_boards"`
	MeanCards   float64 `json:"mean_cards"`
	MeanBoards  float64 `json:"mean_boards"`
	WinChance   float64 `json:"win_chance"`
	TimedOut    bool    `json:"timed_out,omitempty"`
}

// Result contains the summary of a batch and the request that produced it.
type Result struct {
	Summary  Summary       `json:"summary"`
	Duration time.Duration `json:"duration_ns"`
	Echo     Request       `json:"echo"`
}

// Job is a contiguous range of trial nonces handled by one worker.
type Job struct {
	NonceStart uint64
	NonceEnd   uint64
}

// Totals are the integer sums of a set of trials. Totals of disjoint
// trial sets merge into the totals of their union.
type Totals struct {
	Trials    uint64
	Wins      uint64
	Cards     uint64
	Boards    uint64
	MaxBoards int
}

// Add accounts for one trial.
func (t *Totals) Add(res games.TrialResult) {
	t.Trials++
	if res.Won() {
		t.Wins++
	}
	t.Cards += uint64(res.CardsEncountered)
	t.Boards += uint64(res.BoardsRefilled)
	if res.BoardsRefilled > t.MaxBoards {
		t.MaxBoards = res.BoardsRefilled
	}
}

// Merge adds o to t.
func (t *Totals) Merge(o Totals) {
	t.Trials += o.Trials
	t.Wins += o.Wins
	t.Cards += o.Cards
	t.Boards += o.Boards
	if o.MaxBoards > t.MaxBoards {
		t.MaxBoards = o.MaxBoards
	}
}

// Summary derives the means from the totals.
func (t Totals) Summary() Summary {
	summary := Summary{
		Trials:      t.Trials,
		Wins:        t.Wins,
		CardsTotal:  t.Cards,
		BoardsTotal: t.Boards,
		MaxBoards:   t.MaxBoards,
	}
	if t.Trials == 0 {
		return summary
	}
	n := float64(t.Trials)
	summary.MeanCards = float64(t.Cards) / n
	summary.MeanBoards = float64(t.Boards) / n
	summary.WinChance = float64(t.Wins) / n
	return summary
}

// Worker plays the trials of the jobs it receives.
type Worker struct {
	id     int
	jobs   <-chan Job
	totals chan<- Totals
	cfg    games.Config
	seeds  engine.Seeds
	mode   engine.Mode
}

// Scanner runs trial batches across all CPUs.
type Scanner struct {
	workerCount       int
	batchSize         uint64
	maxTrials         uint64
	maxConfigurations int
}

// NewScanner creates a scanner with one worker per CPU and no trial limit.
func NewScanner() *Scanner {
	return &Scanner{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   8192,
	}
}

// WithMaxTrials limits the trials a single request may ask for. Zero
// removes the limit.
func (s *Scanner) WithMaxTrials(n uint64) *Scanner {
	s.maxTrials = n
	return s
}

// WithMaxConfigurations limits the configurations a single sweep may
// enumerate. Zero removes the limit.
func (s *Scanner) WithMaxConfigurations(n int) *Scanner {
	s.maxConfigurations = n
	return s
}

// WithWorkers overrides the worker count.
func (s *Scanner) WithWorkers(n int) *Scanner {
	if n > 0 {
		s.workerCount = n
	}
	return s
}

// Validate checks the request without running it.
func (s *Scanner) Validate(req Request) error {
	if err := req.Config.Validate(); err != nil {
		return err
	}
	if req.NonceEnd < req.NonceStart {
		return fmt.Errorf("%w: start %d > end %d", ErrInvalidRange, req.NonceStart, req.NonceEnd)
	}
	if s.maxTrials > 0 && req.NonceEnd-req.NonceStart >= s.maxTrials {
		return fmt.Errorf("%w: %d > %d", ErrTooManyTrials, req.Trials(), s.maxTrials)
	}
	if _, err := engine.NewStream(req.Mode, req.Seeds, req.NonceStart); err != nil {
		return err
	}
	return nil
}

// Run plays every trial of req in parallel and aggregates the results.
// When ctx expires the summary covers the trials finished so far and is
// flagged TimedOut.
func (s *Scanner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	started := time.Now()
	jobs := make(chan Job, s.workerCount*2)
	totals := make(chan Totals, s.workerCount*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workerCount; i++ {
		w := &Worker{
			id:     i,
			jobs:   jobs,
			totals: totals,
			cfg:    req.Config,
			seeds:  req.Seeds,
			mode:   req.Mode,
		}
		wg.Add(1)
		go w.Run(ctx, &wg)
	}

	go s.generateJobs(ctx, jobs, req.NonceStart, req.NonceEnd)
	go func() {
		wg.Wait()
		close(totals)
	}()

	var total Totals
	for t := range totals {
		total.Merge(t)
	}

	summary := total.Summary()
	summary.TimedOut = ctx.Err() != nil && total.Trials < req.Trials()

	return &Result{
		Summary:  summary,
		Duration: time.Since(started),
		Echo:     req,
	}, nil
}

// Run consumes jobs until the channel closes or ctx is done.
func (w *Worker) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.processJob(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

// processJob plays one job and always reports its partial totals.
func (w *Worker) processJob(ctx context.Context, job Job) {
	var t Totals
	defer func() { w.totals <- t }()

	for nonce := job.NonceStart; ; nonce++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rng, err := engine.NewStream(w.mode, w.seeds, nonce)
		if err != nil {
			// Validate already checked the mode.
			return
		}
		t.Add(games.Drive(w.cfg, rng, nil))

		if nonce == job.NonceEnd {
			return
		}
	}
}

// generateJobs splits [start, end] into batches.
func (s *Scanner) generateJobs(ctx context.Context, jobs chan<- Job, start, end uint64) {
	defer close(jobs)

	for current := start; ; {
		batchEnd := current + s.batchSize - 1
		if batchEnd > end || batchEnd < current {
			batchEnd = end
		}

		select {
		case jobs <- Job{NonceStart: current, NonceEnd: batchEnd}:
		case <-ctx.Done():
			return
		}

		if batchEnd == end {
			return
		}
		current = batchEnd + 1
	}
}
