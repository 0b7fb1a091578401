package scan

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
)

// Sweep defaults: board sizes 1..20 with jokers, every memory and
// reshuffle combination, 1000 trials each.
const (
	DefaultMinBoard    = 1
	DefaultMaxBoard    = 21
	DefaultTrials      = 1000
	DefaultConcurrency = 2
)

// SweepRequest enumerates configurations as the cartesian product of its
// sets. Board sizes are Boards if given, otherwise [MinBoard, MaxBoard).
type SweepRequest struct {
	Boards      []int                 `json:"boards,omitempty"`
	MinBoard    int                   `json:"min_board,omitempty"`
	MaxBoard    int                   `json:"max_board,omitempty"`
	Jokers      []bool                `json:"jokers,omitempty"`
	Memory      []bool                `json:"memory,omitempty"`
	Reshuffle   []bool                `json:"reshuffle,omitempty"`
	Denominator games.DenominatorMode `json:"denominator,omitempty"`
	MaxDecks    int                   `json:"max_decks,omitempty"`
	Trials      uint64                `json:"trials,omitempty"`
	Seeds       engine.Seeds          `json:"seeds"`
	Mode        engine.Mode           `json:"rng,omitempty"`
	Concurrency int                   `json:"concurrency,omitempty"`
	TimeoutMs   int                   `json:"timeout_ms,omitempty"`

	// Progress is called once per finished configuration. Calls are
	// serialized.
	Progress func(done, total int, entry Entry) `json:"-"`
}

// WithDefaults fills unset fields.
func (r SweepRequest) WithDefaults() SweepRequest {
	if len(r.Boards) == 0 && r.MinBoard == 0 && r.MaxBoard == 0 {
		r.MinBoard, r.MaxBoard = DefaultMinBoard, DefaultMaxBoard
	}
	if len(r.Jokers) == 0 {
		r.Jokers = []bool{true}
	}
	if len(r.Memory) == 0 {
		r.Memory = []bool{true, false}
	}
	if len(r.Reshuffle) == 0 {
		r.Reshuffle = []bool{true, false}
	}
	if r.Trials == 0 {
		r.Trials = DefaultTrials
	}
	if r.Concurrency <= 0 {
		r.Concurrency = DefaultConcurrency
	}
	if r.Mode == "" {
		r.Mode = engine.ModeProvablyFair
	}
	if r.Denominator == "" {
		r.Denominator = games.DenominatorDeck
	}
	return r
}

// BoardSizes returns the board sizes of the sweep in ascending input order.
func (r SweepRequest) BoardSizes() []int {
	if len(r.Boards) > 0 {
		return append([]int(nil), r.Boards...)
	}
	var sizes []int
	for b := r.MinBoard; b < r.MaxBoard; b++ {
		sizes = append(sizes, b)
	}
	return sizes
}

// ConfigurationCount returns len(r.Configurations()) without building the
// list. It saturates at math.MaxInt.
func (r SweepRequest) ConfigurationCount() int {
	var boards uint64
	switch {
	case len(r.Boards) > 0:
		boards = uint64(len(r.Boards))
	case r.MaxBoard > r.MinBoard:
		boards = uint64(r.MaxBoard) - uint64(r.MinBoard)
	}
	if boards > math.MaxInt {
		return math.MaxInt
	}
	n := int(boards)
	for _, k := range []int{len(r.Jokers), len(r.Reshuffle), len(r.Memory)} {
		if k > 0 && n > math.MaxInt/k {
			return math.MaxInt
		}
		n *= k
	}
	return n
}

// Configurations lists every configuration of the sweep, ordered by board
// size, then jokers, then reshuffle, then memory.
func (r SweepRequest) Configurations() []games.Config {
	var configs []games.Config
	for _, board := range r.BoardSizes() {
		for _, jokers := range r.Jokers {
			for _, reshuffle := range r.Reshuffle {
				for _, memory := range r.Memory {
					configs = append(configs, games.Config{
						BoardSize:   board,
						Jokers:      jokers,
						Memory:      memory,
						Reshuffle:   reshuffle,
						Denominator: r.Denominator,
						MaxDecks:    r.MaxDecks,
					})
				}
			}
		}
	}
	return configs
}

// Entry is the outcome of one configuration.
type Entry struct {
	Config  games.Config `json:"config"`
	Summary Summary      `json:"summary"`
}

// SweepResult holds one entry per configuration in Configurations order.
type SweepResult struct {
	Entries  []Entry       `json:"entries"`
	Duration time.Duration `json:"duration_ns"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Echo     SweepRequest  `json:"echo"`
}

// Sweep runs every configuration of req with s. Each configuration plays
// nonces [0, Trials) so every configuration sees the same seeds. At most
// GOMAXPROCS configurations run at once.
func (s *Scanner) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	req = req.WithDefaults()
	req.Concurrency = min(req.Concurrency, runtime.GOMAXPROCS(0))

	count := req.ConfigurationCount()
	if count == 0 {
		return nil, ErrEmptySweep
	}
	if s.maxConfigurations > 0 && count > s.maxConfigurations {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyConfigurations, count, s.maxConfigurations)
	}

	configs := req.Configurations()

	requests := make([]Request, len(configs))
	for i, cfg := range configs {
		requests[i] = Request{
			Config:     cfg,
			Seeds:      req.Seeds,
			Mode:       req.Mode,
			NonceStart: 0,
			NonceEnd:   req.Trials - 1,
		}
		if err := s.Validate(requests[i]); err != nil {
			return nil, fmt.Errorf("configuration %q: %w", cfg.String(), err)
		}
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	started := time.Now()
	entries := make([]Entry, len(configs))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Concurrency)
	for i := range requests {
		g.Go(func() error {
			res, err := s.Run(gctx, requests[i])
			if err != nil {
				return fmt.Errorf("configuration %q: %w", requests[i].Config.String(), err)
			}
			entries[i] = Entry{Config: requests[i].Config, Summary: res.Summary}

			if req.Progress != nil {
				mu.Lock()
				done++
				req.Progress(done, len(entries), entries[i])
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SweepResult{
		Entries:  entries,
		Duration: time.Since(started),
		Echo:     req,
	}
	for _, e := range entries {
		if e.Summary.TimedOut || e.Summary.Trials < req.Trials {
			result.TimedOut = true
		}
	}
	return result, nil
}
