package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
)

const defaultFlushSize = 500

// Recorder buffers spins and session outcomes of one run and writes them in
// batches. It implements simulator.Observer and is safe for concurrent use,
// so one Recorder can observe a parallel batch.
type Recorder struct {
	db        DB
	ctx       context.Context
	runID     string
	log       *zap.Logger
	flushSize int
	spins     bool

	mu       sync.Mutex
	spinBuf  []Spin
	sessBuf  []Session
	err      error
	recorded int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithFlushSize sets how many rows are buffered before a write.
func WithFlushSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.flushSize = n
		}
	}
}

// WithSpins controls whether individual spins are stored. Sessions are
// always stored.
func WithSpins(keep bool) RecorderOption {
	return func(r *Recorder) { r.spins = keep }
}

// WithRecorderLogger sets the logger for write failures.
func WithRecorderLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRecorder creates a recorder writing rows for runID. The run itself
// must already be saved.
func NewRecorder(ctx context.Context, db DB, runID string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		db:        db,
		ctx:       ctx,
		runID:     runID,
		log:       zap.NewNop(),
		flushSize: defaultFlushSize,
		spins:     true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.spinBuf = make([]Spin, 0, r.flushSize)
	return r
}

// OnSpin buffers one spin.
func (r *Recorder) OnSpin(session int, spin simulator.SpinResult) {
	if !r.spins {
		return
	}
	row, err := SpinFromResult(r.runID, session, spin)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.fail(err)
		return
	}
	r.spinBuf = append(r.spinBuf, row)
	if len(r.spinBuf) >= r.flushSize {
		r.flushSpinsLocked()
	}
}

// OnSessionEnd buffers one session outcome.
func (r *Recorder) OnSessionEnd(session int, result simulator.SessionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessBuf = append(r.sessBuf, SessionFromResult(r.runID, session, result))
	r.recorded++
	if len(r.sessBuf) >= r.flushSize {
		r.flushSessionsLocked()
	}
}

// Flush writes everything still buffered and returns the first write error
// seen since the recorder was created.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushSessionsLocked()
	r.flushSpinsLocked()
	return r.err
}

// Sessions returns how many session outcomes have been observed.
func (r *Recorder) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded
}

func (r *Recorder) flushSpinsLocked() {
	if len(r.spinBuf) == 0 || r.err != nil {
		r.spinBuf = r.spinBuf[:0]
		return
	}
	if err := r.db.SaveSpins(r.ctx, r.spinBuf); err != nil {
		r.fail(err)
	}
	r.spinBuf = r.spinBuf[:0]
}

func (r *Recorder) flushSessionsLocked() {
	if len(r.sessBuf) == 0 || r.err != nil {
		r.sessBuf = r.sessBuf[:0]
		return
	}
	if err := r.db.SaveSessions(r.ctx, r.sessBuf); err != nil {
		r.fail(err)
	}
	r.sessBuf = r.sessBuf[:0]
}

// fail keeps the first error; later rows are dropped.
func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
		r.log.Error("recorder write failed", zap.String("run_id", r.runID), zap.Error(err))
	}
}
