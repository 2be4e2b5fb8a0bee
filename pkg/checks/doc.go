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

// Package checks implements the pre-flight environment probes run before an
// operation and the runner that reports their outcomes.
//
// A check returns an Outcome instead of an error: Pass, Skipped, Ignored,
// Warning or Error. The Runner prints one glyph per check and folds every
// Error outcome into a single CumulativeCheckError carrying the CHECK_FAILED
// code. Warnings are shown but never fail the run.
//
// Checks read their inputs from an Environment, which holds the operation
// configuration and the seams used in tests (command runner, HTTP client,
// resolver, systemd unit state and file paths).
package checks
