package orchestrator

import (
	"sync"
	"time"
)

type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

type StageState struct {
	Name       string         `json:"name"`
	Status     StageStatus    `json:"status"`
	Attempts   int            `json:"attempts"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
	Outputs    map[string]any `json:"outputs,omitempty"`
}

// Duration is zero until the stage has both started and finished.
func (s *StageState) Duration() time.Duration {
	if s == nil || s.StartedAt == nil || s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(*s.StartedAt)
}

// RunState is the shared state of one run. Stage entries are created before
// any stage starts, so concurrent stages only ever touch their own entry.
type RunState struct {
	mu     sync.Mutex
	Stages map[string]*StageState `json:"stages"`
	Meta   map[string]any         `json:"meta,omitempty"`
}

func NewRunState() *RunState {
	st := &RunState{}
	st.ensure()
	return st
}

func (s *RunState) ensure() {
	if s.Stages == nil {
		s.Stages = map[string]*StageState{}
	}
	if s.Meta == nil {
		s.Meta = map[string]any{}
	}
}

func (s *RunState) EnsureStage(name string) *StageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	ss := s.Stages[name]
	if ss == nil {
		ss = &StageState{
			Name:    name,
			Status:  StagePending,
			Outputs: map[string]any{},
		}
		s.Stages[name] = ss
	}
	if ss.Outputs == nil {
		ss.Outputs = map[string]any{}
	}
	return ss
}

// SetMeta stores a run-level value; safe from concurrent stages.
func (s *RunState) SetMeta(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.Meta[key] = v
}

func (s *RunState) MetaValue(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Meta[key]
	return v, ok
}

func markStarted(ss *StageState) {
	ss.Attempts++
	ss.Status = StageRunning
	ss.StartedAt = ptrTime(time.Now())
	ss.FinishedAt = nil
	ss.LastError = ""
}

func markFinished(ss *StageState, status StageStatus, lastErr string) {
	ss.Status = status
	ss.FinishedAt = ptrTime(time.Now())
	ss.LastError = lastErr
}

func mergeOutputs(ss *StageState, outs map[string]any) {
	if ss.Outputs == nil {
		ss.Outputs = map[string]any{}
	}
	for k, v := range outs {
		ss.Outputs[k] = v
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
