package api

import (
	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
	"github.com/MJE43/busfahrer-sim/internal/scan"
	"github.com/MJE43/busfahrer-sim/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

const (
	// Input validation errors
	ErrTypeValidation    = "validation_error"
	ErrTypeInvalidConfig = "invalid_config"
	ErrTypeInvalidRange  = "invalid_range"

	ErrTypeNotFound = "not_found"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, ErrTypeInvalidConfig, ErrTypeInvalidRange:
		return CategoryValidation
	case ErrTypeNotFound:
		return CategoryNotFound
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
	GoVersion     string `json:"go_version,omitempty"`
}

// SweepResponse is a persisted sweep with its per-configuration results.
type SweepResponse struct {
	Sweep         store.Sweep  `json:"sweep"`
	Entries       []scan.Entry `json:"entries"`
	EngineVersion string       `json:"engine_version"`
}

// VerifyRequest replays a single trial.
type VerifyRequest struct {
	Config games.Config `json:"config"`
	Seeds  engine.Seeds `json:"seeds"`
	Mode   engine.Mode  `json:"rng,omitempty"`
	Nonce  uint64       `json:"nonce"`
	Trace  bool         `json:"trace,omitempty"`
}

// VerifyResponse is the outcome of a replayed trial. Steps and Reshuffles
// are only filled when the request asked for a trace.
type VerifyResponse struct {
	Result        games.TrialResult      `json:"result"`
	Won           bool                   `json:"won"`
	Steps         []games.Step           `json:"steps,omitempty"`
	Reshuffles    []games.ReshuffleEvent `json:"reshuffles,omitempty"`
	EngineVersion string                 `json:"engine_version"`
	Echo          VerifyRequest          `json:"echo"`
}

// SeedHashRequest represents a seed hash lookup request
type SeedHashRequest struct {
	ServerSeed string `json:"server_seed"`
}

// SeedHashResponse represents the response for seed hash lookup
type SeedHashResponse struct {
	Hash          string `json:"hash"`
	EngineVersion string `json:"engine_version"`
}

// DeckOption describes one deck composition.
type DeckOption struct {
	Jokers       bool `json:"jokers"`
	Size         int  `json:"size"`
	MaxBoardSize int  `json:"max_board_size"`
}

// OptionsResponse lists the values the simulation endpoints accept.
type OptionsResponse struct {
	RNGModes      []engine.Mode           `json:"rng_modes"`
	Denominators  []games.DenominatorMode `json:"denominators"`
	Decks         []DeckOption            `json:"decks"`
	SweepDefaults scan.SweepRequest       `json:"sweep_defaults"`
	MaxTrials     uint64                  `json:"max_trials,omitempty"`
	Version       VersionInfo             `json:"version"`
}
