package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Stage is one node of a run's dependency graph.
type Stage struct {
	Name    string
	Deps    []string
	Timeout time.Duration
	Run     func(ctx context.Context, st *RunState) (map[string]any, error)
}

// validateDAG checks names and dependencies and returns a topological order
// that is stable with respect to the input order.
func validateDAG(stages []Stage) ([]string, error) {
	if len(stages) == 0 {
		return nil, nil
	}
	seen := map[string]bool{}
	for _, s := range stages {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("stage missing Name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate stage name %q", name)
		}
		seen[name] = true
	}
	for _, s := range stages {
		for _, dep := range s.Deps {
			if !seen[dep] {
				return nil, fmt.Errorf("stage %q depends on unknown stage %q", s.Name, dep)
			}
			if dep == s.Name {
				return nil, fmt.Errorf("stage %q depends on itself", s.Name)
			}
		}
	}

	// Kahn topological sort, stable by input order.
	deg := map[string]int{}
	out := map[string][]string{}
	for _, s := range stages {
		deg[s.Name] = 0
	}
	for _, s := range stages {
		for _, dep := range s.Deps {
			deg[s.Name]++
			out[dep] = append(out[dep], s.Name)
		}
	}

	order := make([]string, 0, len(stages))
	added := map[string]bool{}

	for {
		progressed := false
		for _, s := range stages {
			if added[s.Name] {
				continue
			}
			if deg[s.Name] == 0 {
				added[s.Name] = true
				order = append(order, s.Name)
				for _, n := range out[s.Name] {
					deg[n]--
				}
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	if len(order) != len(stages) {
		return nil, fmt.Errorf("cycle detected in stage graph")
	}
	return order, nil
}

// Levels groups stages into waves: every stage's dependencies sit in an
// earlier wave, so the stages of one wave may run concurrently. Within a
// wave, input order is kept.
func Levels(stages []Stage) ([][]string, error) {
	order, err := validateDAG(stages)
	if err != nil {
		return nil, err
	}
	byName := map[string]Stage{}
	for _, s := range stages {
		byName[s.Name] = s
	}
	level := map[string]int{}
	var out [][]string
	for _, name := range order {
		l := 0
		for _, dep := range byName[name].Deps {
			if level[dep]+1 > l {
				l = level[dep] + 1
			}
		}
		level[name] = l
		for len(out) <= l {
			out = append(out, nil)
		}
		out[l] = append(out[l], name)
	}
	return out, nil
}

// BuildStages turns a name order and a dependency table into stages, binding
// each name to its runner. A name without a runner is an error.
func BuildStages(order []string, deps map[string][]string, runners map[string]func(ctx context.Context, st *RunState) (map[string]any, error)) ([]Stage, error) {
	stages := make([]Stage, 0, len(order))
	for _, name := range order {
		run := runners[name]
		if run == nil {
			return nil, fmt.Errorf("stage %q has no runner", name)
		}
		stages = append(stages, Stage{Name: name, Deps: deps[name], Run: run})
	}
	return stages, nil
}

func depsSatisfied(def Stage, st *RunState) bool {
	for _, dep := range def.Deps {
		ss := st.Stages[dep]
		if ss == nil {
			return false
		}
		if ss.Status != StageSucceeded {
			return false
		}
	}
	return true
}

func allSucceeded(st *RunState, stages []Stage) bool {
	for _, s := range stages {
		ss := st.Stages[s.Name]
		if ss == nil || ss.Status != StageSucceeded {
			return false
		}
	}
	return true
}
