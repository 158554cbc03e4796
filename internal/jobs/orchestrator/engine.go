package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

// ErrDependencyFailed marks a stage that never ran because something it
// depends on did not succeed.
var ErrDependencyFailed = errors.New("dependency failed")

// StageObserver is notified once per stage when it reaches a final status.
type StageObserver interface {
	ObserveStage(name string, status StageStatus, dur time.Duration)
}

// Engine runs a stage graph in-process, wave by wave. Stages of one wave
// run concurrently; a failed stage never cancels its siblings, it only
// causes its dependents to be skipped.
type Engine struct {
	Log         *logger.Logger
	Observer    StageObserver
	MaxParallel int // default: unbounded
}

func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{Log: log}
}

// Run executes stages and returns the final state. The error combines every
// stage failure; skipped dependents are recorded in the state but add no
// error of their own.
func (e *Engine) Run(ctx context.Context, stages []Stage) (*RunState, error) {
	st := NewRunState()
	levels, err := Levels(stages)
	if err != nil {
		return st, fmt.Errorf("validate stages: %w", err)
	}
	byName := map[string]Stage{}
	for _, s := range stages {
		byName[s.Name] = s
		st.EnsureStage(s.Name)
	}

	var errs error
	for _, wave := range levels {
		if cerr := ctx.Err(); cerr != nil {
			e.skipRemaining(st, stages, cerr)
			return st, multierr.Append(errs, cerr)
		}
		waveErrs := make([]error, len(wave))
		var g errgroup.Group
		if e.MaxParallel > 0 {
			g.SetLimit(e.MaxParallel)
		}
		for i, name := range wave {
			def := byName[name]
			ss := st.Stages[name]
			if !depsSatisfied(def, st) {
				markFinished(ss, StageSkipped, ErrDependencyFailed.Error())
				e.log().Warn("Skipping stage", "stage", name, "deps", def.Deps)
				e.observe(name, StageSkipped, 0)
				continue
			}
			g.Go(func() error {
				waveErrs[i] = e.runStage(ctx, st, def, ss)
				return nil
			})
		}
		_ = g.Wait()
		errs = multierr.Combine(append([]error{errs}, waveErrs...)...)
	}

	if allSucceeded(st, stages) {
		e.log().Info("Run succeeded", "stages", len(stages))
	}
	return st, errs
}

func (e *Engine) runStage(ctx context.Context, st *RunState, def Stage, ss *StageState) error {
	markStarted(ss)
	e.log().Debug("Stage started", "stage", def.Name)

	outs, err := safeRun(ctx, def, st)
	if outs != nil {
		mergeOutputs(ss, outs)
	}
	if err != nil {
		markFinished(ss, StageFailed, err.Error())
		e.log().Error("Stage failed", "stage", def.Name, "error", err)
		e.observe(def.Name, StageFailed, ss.Duration())
		return fmt.Errorf("stage %s: %w", def.Name, err)
	}
	markFinished(ss, StageSucceeded, "")
	e.log().Info("Stage succeeded", "stage", def.Name, "duration_ms", ss.Duration().Milliseconds())
	e.observe(def.Name, StageSucceeded, ss.Duration())
	return nil
}

func (e *Engine) skipRemaining(st *RunState, stages []Stage, cause error) {
	for _, s := range stages {
		ss := st.Stages[s.Name]
		if ss != nil && ss.Status == StagePending {
			markFinished(ss, StageSkipped, cause.Error())
		}
	}
}

func (e *Engine) log() *logger.Logger {
	if e.Log == nil {
		return logger.Nop()
	}
	return e.Log
}

func (e *Engine) observe(name string, status StageStatus, dur time.Duration) {
	if e.Observer != nil {
		e.Observer.ObserveStage(name, status, dur)
	}
}

// safeRun applies the stage timeout and turns a panic into an error.
func safeRun(ctx context.Context, def Stage, st *RunState) (outs map[string]any, err error) {
	if def.Run == nil {
		return nil, fmt.Errorf("stage %q: Run is nil", def.Name)
	}
	if def.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, def.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			outs, err = nil, fmt.Errorf("stage %q panicked: %v", def.Name, r)
		}
	}()
	return def.Run(ctx, st)
}
