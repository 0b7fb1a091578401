package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/games"
	"github.com/MJE43/busfahrer-sim/internal/report"
	"github.com/MJE43/busfahrer-sim/internal/scan"
	"github.com/MJE43/busfahrer-sim/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// handleHealth reports liveness, uptime and version.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"uptime":   time.Since(s.startTime).Round(time.Second).String(),
		"version":  GetVersionInfo(),
		"database": s.db != nil,
	})
}

// handleOptions lists accepted rng modes, denominators and deck sizes.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	decks := make([]DeckOption, 0, 2)
	for _, jokers := range []bool{false, true} {
		size := games.DeckSize(jokers)
		decks = append(decks, DeckOption{Jokers: jokers, Size: size, MaxBoardSize: size - 1})
	}

	s.writeJSON(w, http.StatusOK, OptionsResponse{
		RNGModes:      engine.Modes(),
		Denominators:  []games.DenominatorMode{games.DenominatorDeck, games.DenominatorCombined},
		Decks:         decks,
		SweepDefaults: scan.SweepRequest{}.WithDefaults(),
		MaxTrials:     s.maxTrials,
		Version:       GetVersionInfo(),
	})
}

// handleCreateSweep runs a sweep and persists the result. A sweep cut short
// by the server timeout is stored and returned with timed_out set.
func (s *Server) handleCreateSweep(w http.ResponseWriter, r *http.Request) {
	var req scan.SweepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return
	}
	if req.TimeoutMs <= 0 || time.Duration(req.TimeoutMs)*time.Millisecond > s.sweepTimeout {
		req.TimeoutMs = int(s.sweepTimeout / time.Millisecond)
	}

	s.logger.Info("sweep_started",
		"request_id", middleware.GetReqID(r.Context()),
		"server_seed_hash", hashSeed(req.Seeds.Server),
		"trials", req.Trials,
	)

	res, err := s.scanner.Sweep(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	sweep, results, err := store.NewSweepRecord(res, EngineVersion)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	// Persist even if the client went away.
	ctx := context.WithoutCancel(r.Context())
	if err := s.db.SaveSweep(ctx, sweep, results); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.logger.Info("sweep_completed",
		"request_id", middleware.GetReqID(r.Context()),
		"sweep_id", sweep.ID,
		"configurations", len(res.Entries),
		"timed_out", res.TimedOut,
		"duration", res.Duration,
	)

	s.writeJSON(w, http.StatusCreated, SweepResponse{
		Sweep:         *sweep,
		Entries:       res.Entries,
		EngineVersion: EngineVersion,
	})
}

// handleListSweeps returns a page of stored sweeps.
func (s *Server) handleListSweeps(w http.ResponseWriter, r *http.Request) {
	query := store.SweepsQuery{}
	for name, dst := range map[string]*int{"page": &query.Page, "perPage": &query.PerPage} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errorHandler.HandleValidationError(w, r, name, "must be a positive integer")
			return
		}
		*dst = n
	}
	if query.PerPage > 500 {
		query.PerPage = 500
	}

	list, err := s.db.ListSweeps(r.Context(), query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// loadSweep fetches a sweep and its entries.
func (s *Server) loadSweep(ctx context.Context, id string) (*SweepResponse, error) {
	sweep, err := s.db.GetSweep(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := s.db.GetResults(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SweepResponse{
		Sweep:         *sweep,
		Entries:       store.Entries(sweep, results),
		EngineVersion: EngineVersion,
	}, nil
}

// handleGetSweep returns one sweep with its results.
func (s *Server) handleGetSweep(w http.ResponseWriter, r *http.Request) {
	resp, err := s.loadSweep(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleDeleteSweep removes a stored sweep.
func (s *Server) handleDeleteSweep(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteSweep(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportSweep streams the results of a sweep as CSV.
func (s *Server) handleExportSweep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := s.loadSweep(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "sweep-"+id+".csv"))
	w.Header().Set("X-Engine-Version", EngineVersion)
	if err := report.CSV(w, resp.Entries); err != nil {
		s.logger.Error("csv export failed", "sweep_id", id, "error", err)
	}
}

// handleVerifyTrial replays a single trial from seeds and nonce.
func (s *Server) handleVerifyTrial(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return
	}
	if err := req.Config.Validate(); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	rng, err := engine.NewStream(req.Mode, req.Seeds, req.Nonce)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	resp := VerifyResponse{EngineVersion: EngineVersion, Echo: req}
	if req.Trace {
		rec := &games.Recorder{}
		resp.Result = games.Drive(req.Config, rng, rec)
		resp.Steps, resp.Reshuffles = rec.Steps, rec.Reshuffles
	} else {
		resp.Result = games.Drive(req.Config, rng, nil)
	}
	resp.Won = resp.Result.Won()

	s.writeJSON(w, http.StatusOK, resp)
}

// handleSeedHash returns the SHA-256 of a server seed.
func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	var req SeedHashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return
	}
	if req.ServerSeed == "" {
		s.errorHandler.HandleValidationError(w, r, "server_seed", "server_seed is required")
		return
	}
	s.writeJSON(w, http.StatusOK, SeedHashResponse{
		Hash:          engine.HashSeed(req.ServerSeed),
		EngineVersion: EngineVersion,
	})
}
