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

package ux

import (
	"bytes"
	"errors"
	"testing"
)

func TestConsoleOutcomeLines(t *testing.T) {
	tests := []struct {
		name  string
		write func(c *Console)
		want  string
	}{
		{"pass", func(c *Console) { c.Print("Checking user..."); c.Pass() }, "Checking user... ✓\n"},
		{"warned", func(c *Console) { c.Print("Checking OS..."); c.Warned("unsupported OS") }, "Checking OS... ✗\nunsupported OS\n"},
		{"failed", func(c *Console) { c.Print("Checking ports..."); c.Failed("port 80 busy") }, "Checking ports... ✗\nport 80 busy\n"},
		{"skipped", func(c *Console) { c.Print("Checking DNS..."); c.Skipped("") }, "Checking DNS... SKIPPED\n"},
		{"plain lines", func(c *Console) { c.Success("done"); c.Error("boom") }, "done\nboom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := NewConsole(&buf)
			tt.write(c)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConsoleNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	if NewConsole(&buf).Terminal() {
		t.Error("buffer must not be detected as terminal")
	}
}

func TestSpinnerRunWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(NewConsole(&buf))

	errBoom := errors.New("boom")
	if err := s.Run(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("Run() error = %v, want %v", err, errBoom)
	}
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("spinner wrote %q to a non-terminal", buf.String())
	}
}
