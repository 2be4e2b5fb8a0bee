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

package config

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
)

// Prompter asks the user for the value of a single field.
type Prompter interface {
	Ask(ctx context.Context, e Entry) error
}

// FormPrompter prompts on the terminal with charmbracelet/huh forms.
// Inputs are validated with the field's own callback, so the form re-asks
// until the value is accepted.
type FormPrompter struct {
	Theme *huh.Theme
}

// Ask implements Prompter.
func (p *FormPrompter) Ask(ctx context.Context, e Entry) error {
	if e.IsBool() {
		var b bool
		if v, ok := e.Any(); ok {
			b, _ = v.(bool)
		}
		confirm := huh.NewConfirm().Title(e.Description()).Value(&b)
		if err := p.run(ctx, confirm); err != nil {
			return err
		}
		return e.SetAny(b)
	}

	var s string
	if v, ok := e.Any(); ok {
		s = fmt.Sprint(v)
	}
	input := huh.NewInput().Title(e.Description()).Value(&s).Validate(e.Check)
	if e.Secret() {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if err := p.run(ctx, input); err != nil {
		return err
	}
	return e.SetString(s)
}

func (p *FormPrompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field))
	if p.Theme != nil {
		form = form.WithTheme(p.Theme)
	}
	return form.RunWithContext(ctx)
}

// PromptMissing asks for every promptable field in declaration order.
func PromptMissing(ctx context.Context, c *OperationConfig, p Prompter) error {
	for _, e := range c.entries {
		if !e.Promptable() {
			continue
		}
		if err := p.Ask(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
