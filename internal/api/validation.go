package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

const (
	maxSpinsLimit    = 1_000_000
	maxStreamSpins   = 10_000
	maxSessionsLimit = 100_000
	maxWorkersLimit  = 64
)

// plan is a validated request, ready to run.
type plan struct {
	key    string
	params strategy.Params
	cfg    simulator.SessionConfig
	spec   simulator.WheelSpec
}

func validationError(field, message string) EngineError {
	return NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithContext("field", field).
		Build()
}

func invalidParams(field string, err error) EngineError {
	return NewError(ErrTypeInvalidParams, err.Error()).
		WithContext("field", field).
		Build()
}

// ValidateSimulateRequest checks a session request and resolves it into a
// plan. spinLimit caps max_spins.
func ValidateSimulateRequest(req *SimulateRequest, spinLimit int) (plan, error) {
	if req.Strategy == "" {
		return plan{}, validationError("strategy", "strategy is required")
	}
	if _, ok := strategy.Lookup(req.Strategy); !ok {
		keys := make([]string, 0)
		for _, d := range strategy.Catalog() {
			keys = append(keys, d.Key)
		}
		return plan{}, NewError(ErrTypeStrategyNotFound, fmt.Sprintf("Strategy '%s' not found", req.Strategy)).
			WithContext("available_strategies", keys).
			Build()
	}

	variant, err := roulette.ParseVariant(req.Variant)
	if err != nil {
		return plan{}, invalidParams("variant", err)
	}

	if req.MaxSpins > spinLimit {
		return plan{}, validationError("max_spins", fmt.Sprintf("max_spins too large (max %d)", spinLimit))
	}
	cfg, err := simulator.NewSessionConfig(req.InitialBudget, req.MaxSpins, req.TargetBalance)
	if err != nil {
		return plan{}, invalidParams("initial_budget", err)
	}

	spec := simulator.WheelSpec{
		Variant:    variant,
		Seed:       req.Seed,
		ServerSeed: req.ServerSeed,
		ClientSeed: req.ClientSeed,
	}
	if req.ServerSeed == "" && req.ClientSeed != "" {
		return plan{}, validationError("server_seed", "server_seed is required with client_seed")
	}
	if req.Pockets != "" {
		spec.Pockets, err = roulette.ParsePockets(req.Pockets)
		if err != nil {
			return plan{}, invalidParams("pockets", err)
		}
	}
	if err := spec.Validate(); err != nil {
		return plan{}, invalidParams("pockets", err)
	}

	return plan{
		key:    req.Strategy,
		params: strategy.Params(req.Params),
		cfg:    cfg,
		spec:   spec,
	}, nil
}

// ValidateBatchRequest checks the batch-only fields on top of the session
// fields.
func ValidateBatchRequest(req *BatchRequest) (plan, error) {
	if req.Sessions < 1 {
		return plan{}, validationError("sessions", "sessions must be >= 1")
	}
	if req.Sessions > maxSessionsLimit {
		return plan{}, validationError("sessions", fmt.Sprintf("sessions too large (max %d)", maxSessionsLimit))
	}
	if req.Workers < 0 || req.Workers > maxWorkersLimit {
		return plan{}, validationError("workers", fmt.Sprintf("workers must be between 0 and %d", maxWorkersLimit))
	}
	if req.RecordSpins && !req.Persist {
		return plan{}, validationError("record_spins", "record_spins requires persist")
	}
	return ValidateSimulateRequest(&req.SimulateRequest, maxSpinsLimit)
}

// buildStrategy constructs the strategy of stream 0, reporting bad
// parameters and script load errors as request errors.
func (p plan) buildStrategy() (strategy.Strategy, error) {
	st, err := simulator.StrategyFactory(p.key, p.params, p.spec)()
	if err != nil {
		errType := ErrTypeInvalidParams
		if p.key == "script" {
			errType = ErrTypeScript
		}
		return nil, NewError(errType, err.Error()).
			WithContext("strategy", p.key).
			Build()
	}
	return st, nil
}

// parseSimulateQuery reads a session request from URL query values, as used
// by the websocket stream.
func parseSimulateQuery(get func(string) string, params []string) (SimulateRequest, error) {
	req := SimulateRequest{
		Strategy:   get("strategy"),
		Variant:    get("variant"),
		ServerSeed: get("server_seed"),
		ClientSeed: get("client_seed"),
		Pockets:    get("pockets"),
	}

	var err error
	if s := get("initial_budget"); s != "" {
		if req.InitialBudget, err = decimal.NewFromString(s); err != nil {
			return req, invalidParams("initial_budget", err)
		}
	}
	if s := get("target_balance"); s != "" {
		target, err := decimal.NewFromString(s)
		if err != nil {
			return req, invalidParams("target_balance", err)
		}
		req.TargetBalance = &target
	}
	if s := get("max_spins"); s != "" {
		if req.MaxSpins, err = strconv.Atoi(s); err != nil {
			return req, validationError("max_spins", "max_spins must be an integer")
		}
	}
	if s := get("seed"); s != "" {
		if req.Seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return req, validationError("seed", "seed must be an unsigned integer")
		}
	}

	p, err := strategy.ParseParams(params)
	if err != nil {
		return req, invalidParams("param", err)
	}
	req.Params = p
	return req, nil
}

func parseIntQuery(get func(string) string, key string) (int, error) {
	s := strings.TrimSpace(get(key))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, validationError(key, fmt.Sprintf("%s must be an integer", key))
	}
	return v, nil
}
