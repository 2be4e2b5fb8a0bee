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
)

// Status is the kind of a check outcome.
type Status int

const (
	StatusPass Status = iota
	StatusSkipped
	StatusIgnored
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusSkipped:
		return "skipped"
	case StatusIgnored:
		return "ignored"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is the result of a single check.
type Outcome struct {
	Status  Status
	Message string
}

// Pass reports a successful check.
func Pass() Outcome { return Outcome{Status: StatusPass} }

// Skipped reports a check that does not apply to this run.
func Skipped(format string, args ...any) Outcome {
	return Outcome{Status: StatusSkipped, Message: fmt.Sprintf(format, args...)}
}

// Ignored reports a check that does not apply to this host.
func Ignored(format string, args ...any) Outcome {
	return Outcome{Status: StatusIgnored, Message: fmt.Sprintf(format, args...)}
}

// Warning reports a non-fatal problem.
func Warning(format string, args ...any) Outcome {
	return Outcome{Status: StatusWarning, Message: fmt.Sprintf(format, args...)}
}

// Error reports a fatal problem.
func Error(format string, args ...any) Outcome {
	return Outcome{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Check is a single pre-flight probe.
type Check func(ctx context.Context) Outcome

// Item pairs a check with the message printed before it runs.
type Item struct {
	Name    string
	Message string
	Check   Check
}
