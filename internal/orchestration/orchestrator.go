package orchestration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/logging"
	"github.com/agbru/heatsolve/internal/progress"
)

// ProgressBufferMultiplier defines the event channel capacity per simulation.
// A larger buffer reduces the likelihood of dropping a progress batch when
// the consumer is slow. Progress batches may only use the capacity not
// reserved for lifecycle events, so lifecycle sends never block.
const ProgressBufferMultiplier = 5

const tracerName = "github.com/agbru/heatsolve/internal/orchestration"

// Orchestrator starts runs. It holds no per-run state, so one value can serve
// any number of concurrent sessions.
type Orchestrator struct {
	solver        heat.Solver
	flushInterval time.Duration
	logger        logging.Logger
	recorder      Recorder
	tracer        trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSolver replaces the default Jacobi solver.
func WithSolver(s heat.Solver) Option {
	return func(o *Orchestrator) { o.solver = s }
}

// WithFlushInterval sets the minimum spacing between progress batches.
func WithFlushInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.flushInterval = d }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRecorder sets the instrumentation hooks.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithTracer sets the tracer used for run and simulation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		solver:        heat.NewSolver(),
		flushInterval: progress.DefaultFlushInterval,
		logger:        logging.NopLogger{},
		recorder:      NopRecorder{},
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StartRun validates the whole batch and, if every entry is valid, launches
// one solver per configuration and returns immediately. Nothing is started
// when validation fails.
//
// The returned Session's event stream must be consumed until it is closed.
// Cancelling ctx has the same effect as Session.Cancel.
func (o *Orchestrator) StartRun(ctx context.Context, configs []heat.SimulationConfig) (*Session, error) {
	if err := heat.ValidateBatch(configs); err != nil {
		o.logger.Debug("run rejected", logging.Err(err))
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	runCtx, span := o.tracer.Start(runCtx, "heatsolve.run",
		trace.WithAttributes(attribute.Int("heatsolve.simulations", len(configs))))

	n := len(configs)
	s := &Session{
		o:        o,
		configs:  slices.Clone(configs),
		events:   make(chan Event, n*ProgressBufferMultiplier+2),
		cancel:   cancel,
		done:     make(chan struct{}),
		outcomes: make([]SimulationOutcome, n),
	}
	// RunStarted, one terminal event per simulation, and the final event.
	s.reserved.Store(int64(n + 2))
	go s.run(runCtx, span)
	return s, nil
}

// Session is one running batch.
type Session struct {
	o        *Orchestrator
	configs  []heat.SimulationConfig
	events   chan Event
	cancel   context.CancelFunc
	done     chan struct{}
	outcomes []SimulationOutcome
	final    Event

	// reserved counts lifecycle events not yet sent. Buffered events plus
	// reserved never exceed the channel capacity.
	reserved atomic.Int64
}

// Events returns the ordered event stream. It is closed after the terminal
// RunComplete or RunCancelled event.
func (s *Session) Events() <-chan Event { return s.events }

// Cancel asks every running solver to stop. It is idempotent and returns
// without waiting; the stream still ends with RunCancelled.
func (s *Session) Cancel() { s.cancel() }

// Done is closed once every solver has stopped and the stream is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session is over and returns one outcome per
// configuration, in submission order. The event stream must be drained
// concurrently.
func (s *Session) Wait() []SimulationOutcome {
	<-s.done
	return s.outcomes
}

// Final returns the terminal event, or nil while the session is running.
func (s *Session) Final() Event {
	select {
	case <-s.done:
		return s.final
	default:
		return nil
	}
}

func (s *Session) run(ctx context.Context, span trace.Span) {
	defer close(s.done)
	defer span.End()
	defer s.cancel()

	n := len(s.configs)
	start := time.Now()
	s.o.recorder.RunStarted(n)
	s.o.logger.Info("run started", logging.Int("simulations", n))
	s.emit(RunStarted{Count: n})

	reporter := progress.NewReporter(n, s.o.flushInterval)
	flushCtx, stopFlush := context.WithCancel(context.Background())
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		reporter.Run(flushCtx, eventSink{s: s, ctx: ctx})
	}()

	var cancelled atomic.Int32
	// Simulations never return an error; failures stay isolated in their own
	// SimulationFailed event, so the group only joins and shares ctx.
	g, gctx := errgroup.WithContext(ctx)
	for i, cfg := range s.configs {
		g.Go(func() error {
			if !s.simulate(gctx, i, cfg, reporter.Writer(i)) {
				cancelled.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stopFlush()
	<-flushDone

	outcome := OutcomeComplete
	s.final = RunComplete{}
	if cancelled.Load() > 0 {
		outcome = OutcomeCancelled
		s.final = RunCancelled{}
	}
	elapsed := time.Since(start)
	span.SetAttributes(attribute.String("heatsolve.outcome", outcome))
	s.o.recorder.RunEnded(outcome, elapsed)
	s.o.logger.Info("run ended",
		logging.String("outcome", outcome),
		logging.Int("simulations", n),
		logging.Duration("elapsed", elapsed))

	s.emit(s.final)
	close(s.events)
}

// emit sends a lifecycle event. The reservation guarantees a free slot, so
// the send never waits on the consumer.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
		s.reserved.Add(-1)
	default:
		s.o.logger.Error("event dropped", errEventBufferFull, logging.String("type", string(ev.Type())))
	}
}

var errEventBufferFull = errors.New("event buffer full")

// simulate runs one configuration and reports whether it reached a terminal
// state (finished or failed) rather than being cancelled.
func (s *Session) simulate(ctx context.Context, idx int, cfg heat.SimulationConfig, w progress.Writer) (terminated bool) {
	ctx, span := s.o.tracer.Start(ctx, "heatsolve.simulation", trace.WithAttributes(
		attribute.Int("heatsolve.index", idx),
		attribute.Int("heatsolve.grid_size", cfg.GridSize),
		attribute.Float64("heatsolve.hot_fraction", cfg.HotFraction),
	))
	defer span.End()

	start := time.Now()
	s.o.recorder.SimulationStarted()

	defer func() {
		if r := recover(); r != nil {
			s.fail(idx, cfg, fmt.Errorf("panic: %v", r), time.Since(start), span)
			terminated = true
		}
	}()

	res, err := s.o.solver.Run(ctx, cfg, func(smp heat.Sample) {
		if smp.Terminal {
			w.Report(progress.Complete)
			return
		}
		w.Report(progress.Percent(smp.InitialDelta, smp.Delta, cfg.Tolerance))
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, heat.ErrCancelled) || (err != nil && ctx.Err() != nil && apperrors.IsContextError(err)):
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			// Keep the cause visible so that timeouts and interrupts map to
			// their own exit codes.
			err = fmt.Errorf("%w: %w", err, ctxErr)
		}
		s.outcomes[idx] = SimulationOutcome{Index: idx, Config: cfg, Duration: elapsed, Err: err}
		s.o.recorder.SimulationEnded(StatusCancelled, 0, elapsed)
		span.SetStatus(codes.Unset, "cancelled")
		s.o.logger.Debug("simulation cancelled", logging.Int("index", idx))
		return false
	case err != nil:
		s.fail(idx, cfg, err, elapsed, span)
		return true
	}

	status := StatusConverged
	if !res.Converged {
		status = StatusUnconverged
	}
	w.Report(progress.Complete)
	s.outcomes[idx] = SimulationOutcome{Index: idx, Config: cfg, Result: &res, Duration: elapsed}
	s.o.recorder.SimulationEnded(status, res.FinalIteration, elapsed)
	span.SetAttributes(
		attribute.Int("heatsolve.iterations", res.FinalIteration),
		attribute.Bool("heatsolve.converged", res.Converged),
	)
	s.o.logger.Info("simulation finished",
		logging.Int("index", idx),
		logging.Int("iterations", res.FinalIteration),
		logging.Float64("final_delta", res.FinalDelta),
		logging.Bool("converged", res.Converged),
		logging.Duration("elapsed", elapsed))

	s.emit(SimulationFinished{Index: idx, Result: res})
	return true
}

func (s *Session) fail(idx int, cfg heat.SimulationConfig, cause error, elapsed time.Duration, span trace.Span) {
	err := apperrors.SimulationError{Index: idx, Cause: cause}
	s.outcomes[idx] = SimulationOutcome{Index: idx, Config: cfg, Duration: elapsed, Err: err}
	s.o.recorder.SimulationEnded(StatusFailed, 0, elapsed)
	span.RecordError(err)
	span.SetStatus(codes.Error, cause.Error())
	s.o.logger.Error("simulation failed", cause, logging.Int("index", idx))
	s.emit(SimulationFailed{Index: idx, Reason: cause.Error()})
}

// eventSink adapts a Session to progress.Sink. ctx is the run context; once
// it is done the final flush is abandoned.
type eventSink struct {
	s   *Session
	ctx context.Context
}

func (e eventSink) Offer(percent []float64) bool {
	// Load the reservation before the length: a lifecycle send in between
	// can then only make the sum look larger than it is.
	reserved := int(e.s.reserved.Load())
	if len(e.s.events)+reserved >= cap(e.s.events) {
		return false
	}
	select {
	case e.s.events <- ProgressBatch{Percent: percent}:
		e.s.o.recorder.ProgressFlushed()
		return true
	default:
		return false
	}
}

func (e eventSink) Deliver(percent []float64) {
	if e.Offer(percent) {
		return
	}
	interval := e.s.o.flushInterval
	if interval <= 0 {
		interval = progress.DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if e.Offer(percent) {
				return
			}
		}
	}
}
