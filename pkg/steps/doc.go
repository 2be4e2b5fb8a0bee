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

// Package steps implements the ordered, idempotent stages of install,
// upgrade and uninstall.
//
// A Step reads everything it needs from the Env at entry and never mutates
// the operation configuration. A Sequence runs steps one at a time and
// drives each through Pending, Running and one of Done, Warned, Skipped or
// Failed. A failed step aborts the sequence with a STEP_FAILED error that
// wraps the step's own error kind (CHART_INSTALLATION, GET_SECRET, ...).
// Context cancellation is observed between steps only.
package steps
