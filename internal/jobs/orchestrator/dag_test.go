package orchestrator

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func noop(context.Context, *RunState) (map[string]any, error) { return nil, nil }

func TestValidateDAGStableOrder(t *testing.T) {
	stages := []Stage{
		{Name: "c", Deps: []string{"a"}},
		{Name: "a"},
		{Name: "b", Deps: []string{"a"}},
	}
	order, err := validateDAG(stages)
	if err != nil {
		t.Fatalf("validateDAG: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestValidateDAGRejectsBadGraphs(t *testing.T) {
	cases := map[string][]Stage{
		"empty name": {{Name: " "}},
		"duplicate":  {{Name: "a"}, {Name: "a"}},
		"unknown":    {{Name: "a", Deps: []string{"zzz"}}},
		"self":       {{Name: "a", Deps: []string{"a"}}},
		"cycle":      {{Name: "a", Deps: []string{"b"}}, {Name: "b", Deps: []string{"a"}}},
	}
	for name, stages := range cases {
		if _, err := validateDAG(stages); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLevels(t *testing.T) {
	stages := []Stage{
		{Name: "parse"},
		{Name: "root", Deps: []string{"parse"}},
		{Name: "x", Deps: []string{"root"}},
		{Name: "y", Deps: []string{"root"}},
		{Name: "z", Deps: []string{"x", "parse"}},
	}
	got, err := Levels(stages)
	if err != nil {
		t.Fatalf("Levels: %v", err)
	}
	want := [][]string{{"parse"}, {"root"}, {"x", "y"}, {"z"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Levels = %v, want %v", got, want)
	}
}

func TestBuildStagesRequiresRunner(t *testing.T) {
	_, err := BuildStages([]string{"a", "b"}, nil, map[string]func(context.Context, *RunState) (map[string]any, error){"a": noop})
	if err == nil {
		t.Fatalf("expected missing runner error")
	}
}

type recordingStageObserver struct {
	mu  sync.Mutex
	got map[string]StageStatus
}

func (r *recordingStageObserver) ObserveStage(name string, status StageStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.got == nil {
		r.got = map[string]StageStatus{}
	}
	r.got[name] = status
}

func TestEngineRunsDependenciesFirst(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	mark := func(name string) func(context.Context, *RunState) (map[string]any, error) {
		return func(context.Context, *RunState) (map[string]any, error) {
			mu.Lock()
			ran = append(ran, name)
			mu.Unlock()
			return map[string]any{"ok": name}, nil
		}
	}
	stages := []Stage{
		{Name: "parse", Run: mark("parse")},
		{Name: "root", Deps: []string{"parse"}, Run: mark("root")},
		{Name: "x", Deps: []string{"root"}, Run: mark("x")},
		{Name: "y", Deps: []string{"root"}, Run: mark("y")},
	}
	st, err := NewEngine(nil).Run(context.Background(), stages)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ran) != 4 || ran[0] != "parse" || ran[1] != "root" {
		t.Fatalf("unexpected order %v", ran)
	}
	for _, s := range stages {
		ss := st.Stages[s.Name]
		if ss.Status != StageSucceeded || ss.Attempts != 1 || ss.Outputs["ok"] != s.Name {
			t.Fatalf("stage %s: %+v", s.Name, ss)
		}
	}
}

func TestEngineFailureSkipsOnlyDependents(t *testing.T) {
	boom := errors.New("boom")
	obs := &recordingStageObserver{}
	stages := []Stage{
		{Name: "parse", Run: noop},
		{Name: "root", Deps: []string{"parse"}, Run: noop},
		{Name: "x", Deps: []string{"root"}, Run: func(context.Context, *RunState) (map[string]any, error) { return nil, boom }},
		{Name: "y", Deps: []string{"root"}, Run: noop},
		{Name: "after_x", Deps: []string{"x"}, Run: noop},
	}
	e := NewEngine(nil)
	e.Observer = obs
	st, err := e.Run(context.Background(), stages)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(multierr.Errors(err)) != 1 {
		t.Fatalf("expected one error, got %v", err)
	}
	if st.Stages["y"].Status != StageSucceeded {
		t.Fatalf("sibling should succeed, got %s", st.Stages["y"].Status)
	}
	if st.Stages["after_x"].Status != StageSkipped || st.Stages["after_x"].Attempts != 0 {
		t.Fatalf("dependent should be skipped, got %+v", st.Stages["after_x"])
	}
	if obs.got["x"] != StageFailed || obs.got["after_x"] != StageSkipped {
		t.Fatalf("unexpected observations %v", obs.got)
	}
}

func TestEngineCombinesSiblingFailures(t *testing.T) {
	fail := func(msg string) func(context.Context, *RunState) (map[string]any, error) {
		return func(context.Context, *RunState) (map[string]any, error) { return nil, errors.New(msg) }
	}
	stages := []Stage{
		{Name: "root", Run: noop},
		{Name: "a", Deps: []string{"root"}, Run: fail("a")},
		{Name: "b", Deps: []string{"root"}, Run: fail("b")},
	}
	_, err := NewEngine(nil).Run(context.Background(), stages)
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", n, err)
	}
}

func TestEngineRecoversPanics(t *testing.T) {
	stages := []Stage{{Name: "p", Run: func(context.Context, *RunState) (map[string]any, error) { panic("oops") }}}
	st, err := NewEngine(nil).Run(context.Background(), stages)
	if err == nil || st.Stages["p"].Status != StageFailed {
		t.Fatalf("expected failed stage, got %v", err)
	}
}

func TestEngineStageTimeout(t *testing.T) {
	stages := []Stage{{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Run: func(ctx context.Context, _ *RunState) (map[string]any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}}
	_, err := NewEngine(nil).Run(context.Background(), stages)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestEngineCanceledContextSkipsAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, err := NewEngine(nil).Run(ctx, []Stage{{Name: "a", Run: noop}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if st.Stages["a"].Status != StageSkipped {
		t.Fatalf("expected skipped, got %s", st.Stages["a"].Status)
	}
}
