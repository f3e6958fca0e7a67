// Package workflow implements a minimal job DAG scheduler: a set of named
// jobs, each depending on others via `needs`, each running an ordered list
// of steps that dispatch to a process-wide action registry by name.
//
// Grounded on original_source's Job.hpp/Step.hpp (Job{key, needs, steps},
// Step{name, uses, with}), generalized from that struct-of-fields shape
// into Go types plus a topological-sort runner the original leaves
// unspecified.
package workflow

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrCyclicDependency is returned when a job graph's `needs` edges form a
// cycle, so no valid execution order exists.
var ErrCyclicDependency = errors.New("workflow: cyclic job dependency")

// ErrUnknownAction is returned when a step's Uses name has no registered
// action.
var ErrUnknownAction = errors.New("workflow: unknown action")

// Action is one registered step kind (e.g. "create-database",
// "insert-data"). With carries the step's action-specific config, already
// decoded by the caller (internal/config).
type Action func(ctx context.Context, with any) error

// Step is one unit of work within a Job, matching Step.hpp's
// {name, uses, with} fields.
type Step struct {
	Name string
	Uses string
	With any
}

// Job is a named unit of work with dependencies on other jobs, matching
// Job.hpp's {key, needs, steps} fields.
type Job struct {
	Key   string
	Needs []string
	Steps []Step
}

// Registry maps action names (Step.Uses) to their implementation.
type Registry struct {
	actions map[string]Action
}

// NewRegistry builds an empty action Registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action under name, overwriting any existing
// registration (unlike format.Registry, a process is expected to
// re-register the same small set of built-in actions across test runs
// without needing to guard against panics).
func (r *Registry) Register(name string, action Action) {
	r.actions[name] = action
}

// Run executes every job in jobs in an order that respects `needs`
// (topological sort, ties broken by input order for determinism), running
// each job's steps in sequence and dispatching each to its registered
// action. It stops at the first error, matching spec.md's "no retry/
// backoff policy at the job level beyond what an individual step already
// implements".
func Run(ctx context.Context, jobs []Job, reg *Registry) error {
	order, err := topoSort(jobs)
	if err != nil {
		return err
	}

	for _, job := range order {
		for _, step := range job.Steps {
			action, ok := reg.actions[step.Uses]
			if !ok {
				return errors.Wrapf(ErrUnknownAction, "workflow: job %q step %q uses %q", job.Key, step.Name, step.Uses)
			}
			if err := action(ctx, step.With); err != nil {
				return errors.Wrapf(err, "workflow: job %q step %q", job.Key, step.Name)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return nil
}

// topoSort returns jobs ordered so that every job appears after all jobs
// it `needs`, using Kahn's algorithm for a deterministic, input-order-
// stable result.
func topoSort(jobs []Job) ([]Job, error) {
	byKey := make(map[string]Job, len(jobs))
	indegree := make(map[string]int, len(jobs))
	dependents := make(map[string][]string, len(jobs))

	for _, j := range jobs {
		byKey[j.Key] = j
		if _, ok := indegree[j.Key]; !ok {
			indegree[j.Key] = 0
		}
	}
	for _, j := range jobs {
		for _, need := range j.Needs {
			if _, ok := byKey[need]; !ok {
				return nil, errors.Newf("workflow: job %q needs unknown job %q", j.Key, need)
			}
			indegree[j.Key]++
			dependents[need] = append(dependents[need], j.Key)
		}
	}

	var ready []string
	for _, j := range jobs {
		if indegree[j.Key] == 0 {
			ready = append(ready, j.Key)
		}
	}

	var order []Job
	for len(ready) > 0 {
		key := ready[0]
		ready = ready[1:]
		order = append(order, byKey[key])

		for _, dep := range dependents[key] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(jobs) {
		return nil, ErrCyclicDependency
	}
	return order, nil
}
