// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package steps

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/ux"
)

// State is the lifecycle state of a step in a sequence.
type State int

const (
	Pending State = iota
	Running
	Done
	Warned
	Skipped
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Warned:
		return "warned"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s >= Done }

// Step is one stage of an operation.
type Step struct {
	Name    string
	Message string
	// Skip returns a non-empty reason when the step does not apply.
	Skip func(e *Env) string
	Run  func(ctx context.Context, e *Env) error
}

// Warning is returned by a step that completed with a non-fatal problem.
type Warning struct {
	Message string
}

func (w *Warning) Error() string { return w.Message }

// Warnf returns a *Warning.
func Warnf(format string, args ...any) error {
	return &Warning{Message: fmt.Sprintf(format, args...)}
}

// Record is the outcome of one step.
type Record struct {
	Name     string
	State    State
	Detail   string
	Err      error
	Duration time.Duration
}

// Observer receives every finished step, e.g. for metrics.
type Observer interface {
	StepCompleted(name, state string, d time.Duration)
}

// Sequence runs steps in order.
type Sequence struct {
	Name     string
	Steps    []Step
	Console  *ux.Console
	Observer Observer

	records []Record
}

// Records returns the state of every step after Run.
func (s *Sequence) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Run executes the steps. The first failed step aborts the sequence; later
// steps stay Pending. Cancellation of ctx is observed between steps only: a
// running step keeps going with ctx's values but without its cancellation,
// so a Helm or ctr call is never killed halfway.
func (s *Sequence) Run(ctx context.Context, env *Env) error {
	stepCtx := context.WithoutCancel(ctx)
	s.records = make([]Record, len(s.Steps))
	for i, st := range s.Steps {
		s.records[i] = Record{Name: st.Name, State: Pending}
	}

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := &s.records[i]

		s.Console.Print(st.Message)
		if st.Skip != nil {
			if reason := st.Skip(env); reason != "" {
				s.finish(rec, Skipped, reason, nil, 0)
				s.Console.Skipped(reason)
				continue
			}
		}

		rec.State = Running
		slog.Info("step started", "sequence", s.Name, "step", st.Name)
		start := time.Now()
		var err error
		_ = ux.NewSpinner(s.Console).Run(func() error {
			err = st.Run(stepCtx, env)
			return nil
		})
		elapsed := time.Since(start)

		var warn *Warning
		switch {
		case err == nil:
			s.finish(rec, Done, "", nil, elapsed)
			s.Console.Pass()
		case stderrors.As(err, &warn):
			s.finish(rec, Warned, warn.Message, nil, elapsed)
			s.Console.Warned(warn.Message)
		default:
			s.finish(rec, Failed, "", err, elapsed)
			s.Console.Failed("")
			return errors.WrapWithContext(errors.ErrCodeStepFailed,
				fmt.Sprintf("step %s failed", st.Name), err,
				map[string]any{"sequence": s.Name, "step": st.Name})
		}
	}
	return nil
}

func (s *Sequence) finish(rec *Record, state State, detail string, err error, d time.Duration) {
	rec.State = state
	rec.Detail = detail
	rec.Err = err
	rec.Duration = d

	attrs := []any{"sequence", s.Name, "step", rec.Name, "state", state.String(), "duration", d}
	switch state {
	case Failed:
		slog.Error("step failed", append(attrs, "error", err)...)
	case Warned, Skipped:
		slog.Warn("step finished", append(attrs, "detail", detail)...)
	default:
		slog.Info("step finished", attrs...)
	}
	if s.Observer != nil {
		s.Observer.StepCompleted(rec.Name, state.String(), d)
	}
}
