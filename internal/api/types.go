package api

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"

	// Strategy errors
	ErrTypeStrategyNotFound = "strategy_not_found"
	ErrTypeScript           = "script_error"

	// Storage errors
	ErrTypeRunNotFound = "run_not_found"
	ErrTypeStorage     = "storage_error"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryStrategy   ErrorCategory = "strategy"
	CategoryStorage    ErrorCategory = "storage"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeStrategyNotFound, ErrTypeScript:
		return CategoryStrategy
	case ErrTypeRunNotFound, ErrTypeStorage:
		return CategoryStorage
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// SimulateRequest describes one session.
type SimulateRequest struct {
	Strategy       string           `json:"strategy"`
	Params         map[string]any   `json:"params,omitempty"`
	Variant        string           `json:"variant,omitempty"`
	InitialBudget  decimal.Decimal  `json:"initial_budget"`
	MaxSpins       int              `json:"max_spins"`
	TargetBalance  *decimal.Decimal `json:"target_balance,omitempty"`
	Seed           uint64           `json:"seed,omitempty"`
	ServerSeed     string           `json:"server_seed,omitempty"`
	ClientSeed     string           `json:"client_seed,omitempty"`
	Pockets        string           `json:"pockets,omitempty"` // replay sequence, e.g. "1,00,17"
	IncludeHistory bool             `json:"include_history,omitempty"`
}

// SimulateResponse is the outcome of one session.
type SimulateResponse struct {
	Strategy      string                  `json:"strategy"`
	Result        simulator.SessionResult `json:"result"`
	ScriptLogs    []strategy.LogEntry     `json:"script_logs,omitempty"`
	ScriptError   string                  `json:"script_error,omitempty"`
	EngineVersion string                  `json:"engine_version"`
	Echo          SimulateRequest         `json:"echo"`
}

// BatchRequest describes a batch of independent sessions.
type BatchRequest struct {
	SimulateRequest
	Sessions    int  `json:"sessions"`
	Workers     int  `json:"workers,omitempty"`
	Persist     bool `json:"persist,omitempty"`
	RecordSpins bool `json:"record_spins,omitempty"`
}

// BatchResponse is the aggregate of a batch.
type BatchResponse struct {
	RunID         string                       `json:"run_id,omitempty"`
	StreamEntry   string                       `json:"stream_entry,omitempty"`
	Result        simulator.BatchSessionResult `json:"result"`
	Distribution  []simulator.Bin              `json:"distribution"`
	SuccessRate   float64                      `json:"success_rate"`
	TargetRate    float64                      `json:"target_rate"`
	BankruptRate  float64                      `json:"bankruptcy_rate"`
	EngineVersion string                       `json:"engine_version"`
}

// StrategiesResponse represents the strategy catalog response
type StrategiesResponse struct {
	Strategies    []strategy.Descriptor `json:"strategies"`
	EngineVersion string                `json:"engine_version"`
}

// StreamFrame is one websocket message of /api/v1/stream.
type StreamFrame struct {
	Type   string                   `json:"type"` // "spin" or "result"
	Spin   *simulator.SpinResult    `json:"spin,omitempty"`
	Result *simulator.SessionResult `json:"result,omitempty"`
}
