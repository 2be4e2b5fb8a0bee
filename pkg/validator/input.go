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

package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	playground "github.com/go-playground/validator/v10"
)

const (
	// PasswordMinLength is the shortest accepted password.
	PasswordMinLength = 8
	// PasswordMaxLength is the longest accepted password.
	PasswordMaxLength = 200
	// PasswordSymbols is the fixed set of symbols accepted in place of a digit.
	PasswordSymbols = "!$&()*+,-.:;<=>?@[]^_{|}~"
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+\.[A-Za-z0-9.-]+$`)

	domainLabel = `[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?`
	domainRe    = regexp.MustCompile(`^` + domainLabel + `(\.` + domainLabel + `)*(\.[A-Za-z]{2,63})?$`)
	fqdnRe      = regexp.MustCompile(`^(` + domainLabel + `\.)+[A-Za-z]{2,63}$`)

	validate = playground.New(playground.WithRequiredStructEnabled())
)

// ValidationError reports a rejected user-supplied value. Messages holds every
// failed predicate when more than one rule was evaluated.
type ValidationError struct {
	Message  string
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) > 1 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Messages, "; "))
	}
	return e.Message
}

func invalid(format string, a ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, a...)}
}

// Email validates an administrator e-mail address.
func Email(value string) error {
	if value == "" {
		return invalid("email address must not be empty")
	}
	if !emailRe.MatchString(value) {
		return invalid("%q is not a valid email address", value)
	}
	return nil
}

// Password validates password strength: 8 to 200 characters with at least one
// upper-case letter, one lower-case letter and one digit or allowed symbol.
func Password(value string) error {
	var msgs []string

	n := len([]rune(value))
	if n < PasswordMinLength || n > PasswordMaxLength {
		msgs = append(msgs, fmt.Sprintf("password must be between %d and %d characters long",
			PasswordMinLength, PasswordMaxLength))
	}

	var upper, lower, digitOrSymbol bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r), strings.ContainsRune(PasswordSymbols, r):
			digitOrSymbol = true
		}
	}
	if !upper {
		msgs = append(msgs, "password must contain at least one upper-case letter")
	}
	if !lower {
		msgs = append(msgs, "password must contain at least one lower-case letter")
	}
	if !digitOrSymbol {
		msgs = append(msgs, fmt.Sprintf("password must contain at least one digit or one of %s", PasswordSymbols))
	}

	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Message: msgs[0], Messages: msgs}
}

// Domain validates an optional domain name. The empty string is accepted.
func Domain(value string) error {
	if value == "" {
		return nil
	}
	if !domainRe.MatchString(value) {
		return invalid("%q is not a valid domain name", value)
	}
	return nil
}

// FQDN validates a mandatory fully qualified domain name.
func FQDN(value string) error {
	if value == "" {
		return invalid("fully qualified domain name must not be empty")
	}
	if !fqdnRe.MatchString(value) {
		return invalid("%q is not a fully qualified domain name", value)
	}
	return nil
}

// Filepath validates that value is an absolute path to a readable regular file.
func Filepath(value string) error {
	if !filepath.IsAbs(value) {
		return invalid("%q must be an absolute path", value)
	}
	if err := validate.Var(value, "required,file"); err != nil {
		return invalid("%q does not point to an existing file", value)
	}
	f, err := os.Open(value)
	if err != nil {
		return invalid("%q is not readable: %v", value, err)
	}
	_ = f.Close()
	return nil
}

// DataFolder validates the platform data folder. Remote installations only
// require an absolute path; local ones require an existing, empty directory
// whose permission bits grant nothing to others.
func DataFolder(value string, local bool) error {
	if !filepath.IsAbs(value) {
		return invalid("%q must be an absolute path", value)
	}
	if !local {
		return nil
	}
	if err := validate.Var(value, "required,dir"); err != nil {
		return invalid("%q does not exist or is not a directory", value)
	}
	entries, err := os.ReadDir(value)
	if err != nil {
		return invalid("%q cannot be listed: %v", value, err)
	}
	if len(entries) > 0 {
		return invalid("%q must be empty", value)
	}
	info, err := os.Stat(value)
	if err != nil {
		return invalid("%q cannot be inspected: %v", value, err)
	}
	if perm := info.Mode().Perm(); perm&0o007 != 0 {
		return invalid("%q must not grant permissions to others (mode %#o)", value, perm)
	}
	return nil
}

// HostPort validates a host:port pair such as an SMTP endpoint.
func HostPort(value string) error {
	if err := validate.Var(value, "required,hostname_port"); err != nil {
		return invalid("%q is not a valid host:port address", value)
	}
	return nil
}
