package store

import (
	"context"
	"errors"
	"time"
)

var ErrSweepNotFound = errors.New("sweep not found")

// DB is the persistence interface for finished sweeps.
type DB interface {
	Close() error
	Migrate(ctx context.Context) error
	SaveSweep(ctx context.Context, sweep *Sweep, results []Result) error
	GetSweep(ctx context.Context, id string) (*Sweep, error)
	GetResults(ctx context.Context, sweepID string) ([]Result, error)
	ListSweeps(ctx context.Context, query SweepsQuery) (*SweepsList, error)
	DeleteSweep(ctx context.Context, id string) error
}

// Sweep is the header row of a persisted sweep. Only the hash of the
// server seed is stored.
type Sweep struct {
	ID             string    `json:"id"`
	ServerSeedHash string    `json:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed"`
	RNGMode        string    `json:"rng"`
	Trials         uint64    `json:"trials"`
	Denominator    string    `json:"denominator"`
	MaxDecks       int       `json:"max_decks"`
	RequestJSON    string    `json:"request_json"`
	TimedOut       bool      `json:"timed_out"`
	DurationMs     int64     `json:"duration_ms"`
	EngineVersion  string    `json:"engine_version"`
	CreatedAt      time.Time `json:"created_at"`
	ResultCount    int       `json:"result_count"`
}

// Result is the aggregate of one configuration of a sweep.
type Result struct {
	SweepID     string `json:"sweep_id"`
	Position    int    `json:"position"`
	BoardSize   int    `json:"board_size"`
	Jokers      bool   `json:"jokers"`
	Memory      bool   `json:"memory"`
	Reshuffle   bool   `json:"reshuffle"`
	Trials      uint64 `json:"trials"`
	Wins        uint64 `json:"wins"`
	CardsTotal  uint64 `json:"cards_total"`
	BoardsTotal uint64 `json:"boards_total"`
	MaxBoards   int    `json:"max_boards"`
	TimedOut    bool   `json:"timed_out"`
}

// SweepsQuery selects a page of sweeps, newest first.
type SweepsQuery struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// SweepsList is a page of sweeps.
type SweepsList struct {
	Sweeps     []Sweep `json:"sweeps"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}
