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

package command

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation seen by a FakeRunner.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is a scripted outcome for a FakeRunner.
type Response struct {
	Result Result
	Err    error
}

// FakeRunner is a scripted Runner for tests. Responses are matched by the
// longest registered prefix of the rendered command line; each prefix keeps a
// queue and the last queued response repeats once the queue is drained.
// Commands with no matching prefix succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []Call
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]Response)}
}

// On queues responses for commands whose rendered line starts with prefix.
func (f *FakeRunner) On(prefix string, responses ...Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = append(f.responses[prefix], responses...)
	return f
}

// Fail is shorthand for a response exiting with status 1 and the given stderr.
func Fail(name, stderr string) Response {
	res := Result{Stderr: stderr, ExitCode: 1}
	return Response{Result: res, Err: &ExitError{Command: name, Result: res}}
}

// Ok is shorthand for a successful response with the given stdout.
func Ok(stdout string) Response {
	return Response{Result: Result{Stdout: stdout}}
}

// Run implements Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{Name: name, Args: append([]string(nil), args...)}
	f.calls = append(f.calls, call)

	line := call.String()
	best := ""
	for prefix := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return Result{}, nil
	}

	queue := f.responses[best]
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[best] = queue[1:]
	}
	return resp.Result, resp.Err
}

// Calls returns a copy of every recorded invocation.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsWithPrefix returns the recorded invocations whose line starts with prefix.
func (f *FakeRunner) CallsWithPrefix(prefix string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Lines returns every recorded invocation rendered as a command line.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

var _ Runner = (*FakeRunner)(nil)
var _ Runner = (*ExecRunner)(nil)
