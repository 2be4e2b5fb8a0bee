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
	"fmt"
	"strconv"
	"strings"

	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/validator"
)

// Entry is the type-erased view of a Field used to iterate an OperationConfig
// when prompting, loading a file, or dumping the resolved configuration.
type Entry interface {
	Name() string
	Description() string
	Required() bool
	Secret() bool
	Derived() bool
	IsSet() bool
	IsBool() bool
	// Promptable reports whether the user should be asked for this field now.
	Promptable() bool

	// Check parses and validates s without modifying the field.
	Check(s string) error
	// SetString parses s and stores it through the validating setter.
	SetString(s string) error
	// SetAny stores a decoded YAML scalar through the validating setter.
	SetAny(v any) error
	// Any returns the effective value (current or default) and whether one exists.
	Any() (any, bool)
}

// Field is a typed configuration cell with a required flag, an optional
// default and a validation callback. Setting a value runs the callback and
// leaves the previous value intact on failure.
type Field[T any] struct {
	name        string
	description string
	required    bool
	secret      bool
	derived     bool

	hasDefault bool
	def        T

	set   bool
	value T

	validate func(T) error
	when     func() bool
}

// FieldOption configures a Field.
type FieldOption[T any] func(*Field[T])

// Required marks the field as mandatory.
func Required[T any]() FieldOption[T] {
	return func(f *Field[T]) { f.required = true }
}

// Default sets the value returned while the field is unset.
func Default[T any](v T) FieldOption[T] {
	return func(f *Field[T]) {
		f.hasDefault = true
		f.def = v
	}
}

// Validate installs the validation callback.
func Validate[T any](fn func(T) error) FieldOption[T] {
	return func(f *Field[T]) { f.validate = fn }
}

// Describe sets the human readable prompt text.
func Describe[T any](text string) FieldOption[T] {
	return func(f *Field[T]) { f.description = text }
}

// Secret hides the value in prompts and configuration dumps.
func Secret[T any]() FieldOption[T] {
	return func(f *Field[T]) { f.secret = true }
}

// Derived marks a field computed by the installer rather than supplied by the user.
func Derived[T any]() FieldOption[T] {
	return func(f *Field[T]) { f.derived = true }
}

// PromptIf limits prompting to when cond holds, e.g. SMTP credentials only
// once a host was given.
func PromptIf[T any](cond func() bool) FieldOption[T] {
	return func(f *Field[T]) { f.when = cond }
}

// NewField creates a Field named name.
func NewField[T any](name string, opts ...FieldOption[T]) *Field[T] {
	f := &Field[T]{name: name, description: name}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the field key.
func (f *Field[T]) Name() string { return f.name }

// Description returns the prompt text.
func (f *Field[T]) Description() string { return f.description }

// Required reports whether the field is mandatory.
func (f *Field[T]) Required() bool { return f.required }

// Secret reports whether the value must be hidden.
func (f *Field[T]) Secret() bool { return f.secret }

// Derived reports whether the installer computes the value.
func (f *Field[T]) Derived() bool { return f.derived }

// IsSet reports whether a value was explicitly stored.
func (f *Field[T]) IsSet() bool { return f.set }

// IsBool reports whether the field holds a boolean.
func (f *Field[T]) IsBool() bool {
	_, ok := any(f.value).(bool)
	return ok
}

// Promptable implements Entry.
func (f *Field[T]) Promptable() bool {
	if f.derived || f.set {
		return false
	}
	return f.when == nil || f.when()
}

// Get returns the current value, the default when unset, or a
// MISSING_REQUIRED error when the field is required and has neither.
func (f *Field[T]) Get() (T, error) {
	if f.set {
		return f.value, nil
	}
	if f.hasDefault {
		return f.def, nil
	}
	var zero T
	if f.required {
		return zero, errors.New(errors.ErrCodeMissingRequired,
			fmt.Sprintf("required configuration field %q is not set", f.name))
	}
	return zero, nil
}

// Value returns the effective value, or the zero value when none exists.
func (f *Field[T]) Value() T {
	v, _ := f.Get()
	return v
}

// Set validates v and stores it. On failure the previous value is kept and a
// VALIDATION error is returned.
func (f *Field[T]) Set(v T) error {
	if f.validate != nil {
		if err := f.validate(v); err != nil {
			return errors.Wrap(errors.ErrCodeValidation,
				fmt.Sprintf("invalid value for %q", f.name), err)
		}
	}
	f.value = v
	f.set = true
	return nil
}

// Check implements Entry.
func (f *Field[T]) Check(s string) error {
	v, err := f.parse(s)
	if err != nil {
		return err
	}
	if f.validate != nil {
		return f.validate(v)
	}
	return nil
}

// SetString implements Entry.
func (f *Field[T]) SetString(s string) error {
	v, err := f.parse(s)
	if err != nil {
		return errors.Wrap(errors.ErrCodeValidation, fmt.Sprintf("invalid value for %q", f.name), err)
	}
	return f.Set(v)
}

// SetAny implements Entry.
func (f *Field[T]) SetAny(v any) error {
	if typed, ok := v.(T); ok {
		return f.Set(typed)
	}
	return f.SetString(fmt.Sprint(v))
}

// Any implements Entry.
func (f *Field[T]) Any() (any, bool) {
	if f.set {
		return f.value, true
	}
	if f.hasDefault {
		return f.def, true
	}
	return nil, false
}

func (f *Field[T]) parse(s string) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *string:
		*p = s
	case *bool:
		b, err := parseBool(s)
		if err != nil {
			return out, err
		}
		*p = b
	case *int:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return out, &validator.ValidationError{Message: fmt.Sprintf("%q is not an integer", s)}
		}
		*p = n
	default:
		return out, fmt.Errorf("field %q has unsupported type %T", f.name, out)
	}
	return out, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	}
	return false, &validator.ValidationError{Message: fmt.Sprintf("%q is not a boolean", s)}
}
