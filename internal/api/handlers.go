package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-strategy-sim/internal/publisher"
	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
	"github.com/MJE43/roulette-strategy-sim/internal/store"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

// handleListStrategies returns the strategy catalog
func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StrategiesResponse{
		Strategies:    strategy.Catalog(),
		EngineVersion: EngineVersion,
	})
}

// handleSimulate plays one session
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON format: "+err.Error())
		return
	}

	p, err := ValidateSimulateRequest(&req, maxSpinsLimit)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	st, err := p.buildStrategy()
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	sim := simulator.New(p.spec.Wheel(0),
		simulator.WithHistory(req.IncludeHistory),
		simulator.WithLogger(s.logger.Named("simulator")))
	result := sim.Run(st, p.cfg)

	response := SimulateResponse{
		Strategy:      st.Name(),
		Result:        result,
		EngineVersion: EngineVersion,
		Echo:          req,
	}
	if script, ok := st.(*strategy.Script); ok {
		response.ScriptLogs = script.Logs()
		if err := script.Err(); err != nil {
			response.ScriptError = err.Error()
		}
	}

	s.logger.Info("simulation completed",
		zap.String("strategy", p.key),
		zap.String("seed", p.spec.Label()),
		zap.Int("spins", result.TotalSpins),
		zap.Stringer("end_reason", result.EndReason),
		zap.String("final_balance", result.FinalBalance.String()),
	)
	s.writeJSON(w, http.StatusOK, response)
}

// handleBatch plays a batch across workers, optionally persisting and
// publishing it
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON format: "+err.Error())
		return
	}

	p, err := ValidateBatchRequest(&req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	if req.Persist && s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	// Surface parameter errors as 400s before any work starts.
	if _, err := p.buildStrategy(); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	ctx := r.Context()
	opts := []simulator.Option{
		simulator.WithHistory(false),
		simulator.WithLogger(s.logger.Named("simulator")),
	}

	var (
		run *store.Run
		rec *store.Recorder
	)
	if req.Persist {
		run, err = store.NewRun(uuid.NewString(), p.key, req.Params, p.spec.Variant.String(), p.cfg, req.Sessions, p.spec.Label(), EngineVersion)
		if err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		if err := s.db.SaveRun(ctx, run); err != nil {
			s.storageError(w, r, "save run", err)
			return
		}
		rec = store.NewRecorder(ctx, s.db, run.ID,
			store.WithSpins(req.RecordSpins),
			store.WithRecorderLogger(s.logger.Named("store")))
		opts = append(opts, simulator.WithObserver(rec))
	}

	batch, err := p.spec.RunBatch(ctx, p.key, p.params, p.cfg, req.Sessions, req.Workers, opts...)
	if err != nil {
		if run != nil {
			s.discardRun(r, run.ID)
		}
		s.errorHandler.HandleError(w, r, err)
		return
	}

	response := BatchResponse{
		Result:        batch,
		Distribution:  simulator.Distribution(batch.FinalBalances, batch.InitialBudget),
		SuccessRate:   batch.SuccessRate(),
		TargetRate:    batch.TargetRate(),
		BankruptRate:  batch.BankruptcyRate(),
		EngineVersion: EngineVersion,
	}

	if run != nil {
		if err := rec.Flush(); err != nil {
			s.discardRun(r, run.ID)
			s.storageError(w, r, "record sessions", err)
			return
		}
		run.Finish(batch)
		if err := s.db.UpdateRun(ctx, run); err != nil {
			s.storageError(w, r, "update run", err)
			return
		}
		response.RunID = run.ID
	}

	if s.publisher != nil {
		entry, err := s.publisher.PublishBatch(ctx, publisher.BatchSummary{
			RunID:    response.RunID,
			Strategy: p.key,
			Variant:  p.spec.Variant.String(),
			Result:   batch,
		})
		if err != nil {
			s.logger.Warn("batch publish failed", zap.String("strategy", p.key), zap.Error(err))
		} else {
			response.StreamEntry = entry
		}
	}

	s.logger.Info("batch completed",
		zap.String("strategy", p.key),
		zap.Int("sessions", batch.TotalSimulations),
		zap.Int("workers", req.Workers),
		zap.String("run_id", response.RunID),
		zap.String("average", batch.AverageFinalBalance.String()),
	)
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.errorHandler.HandleError(w, r, NewError(ErrTypeStorage, "Failed to "+op).
		WithContext("operation", op).
		WithCause(err).
		Build())
}

// discardRun removes a half-written run. Failures are only logged.
func (s *Server) discardRun(r *http.Request, id string) {
	if err := s.db.DeleteRun(r.Context(), id); err != nil {
		s.logger.Warn("failed to discard run", zap.String("run_id", id), zap.Error(err))
	}
}
