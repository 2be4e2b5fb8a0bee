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

// Package ux renders installer output on the terminal: coloured outcome
// glyphs, status lines and the spinner shown while a check runs.
//
// All output goes through a Console bound to an io.Writer. Colour and the
// spinner are enabled only when the writer is a terminal, so the same code
// produces plain text in tests and when output is redirected.
package ux
