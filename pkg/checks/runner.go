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

package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/ux"
)

// Observer receives the outcome of every check, e.g. for metrics.
type Observer interface {
	CheckCompleted(name, status string)
}

// Failure is one Error outcome collected by the runner.
type Failure struct {
	Name    string
	Message string
}

// CumulativeCheckError lists every check that returned an Error outcome.
type CumulativeCheckError struct {
	Failures []Failure
}

func (e *CumulativeCheckError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("%d check(s) failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Runner executes checks in order and reports their outcomes on a console.
type Runner struct {
	Console  *ux.Console
	Observer Observer
}

// NewRunner returns a Runner printing to c.
func NewRunner(c *ux.Console) *Runner {
	return &Runner{Console: c}
}

// Run executes items sequentially. Each item prints its message, runs inside
// a spinner and terminates the line with exactly one outcome glyph. When any
// check returned an Error the result wraps a *CumulativeCheckError with the
// CHECK_FAILED code. Cancellation of ctx is observed between checks; every
// probe is bounded by its own timeout instead.
func (r *Runner) Run(ctx context.Context, items []Item) error {
	checkCtx := context.WithoutCancel(ctx)
	var failures []Failure
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.Console.Print(item.Message)
		var out Outcome
		_ = ux.NewSpinner(r.Console).Run(func() error {
			out = item.Check(checkCtx)
			return nil
		})
		r.report(item, out)

		if out.Status == StatusError {
			failures = append(failures, Failure{Name: item.Name, Message: out.Message})
		}
	}

	if len(failures) == 0 {
		return nil
	}
	cause := &CumulativeCheckError{Failures: failures}
	return errors.WrapWithContext(errors.ErrCodeCheckFailed, "environment checks failed", cause,
		map[string]any{"failed": len(failures)})
}

func (r *Runner) report(item Item, out Outcome) {
	switch out.Status {
	case StatusPass:
		r.Console.Pass()
	case StatusSkipped, StatusIgnored:
		r.Console.Skipped(out.Message)
	case StatusWarning:
		r.Console.Warned(out.Message)
	case StatusError:
		r.Console.Failed(out.Message)
	}

	slog.Info("check completed", "check", item.Name, "outcome", out.Status.String(), "message", out.Message)
	if r.Observer != nil {
		r.Observer.CheckCompleted(item.Name, out.Status.String())
	}
}
