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

package errors

import (
	stderrors "errors"
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTimeout indicates an operation exceeded its time limit.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
	// ErrCodeInvalidRequest indicates malformed or invalid input.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrCodeValidation indicates a user-supplied value is malformed.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeMissingRequired indicates a required configuration value was never set.
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"
	// ErrCodeCheckFailed indicates one or more pre-flight checks failed fatally.
	ErrCodeCheckFailed ErrorCode = "CHECK_FAILED"
	// ErrCodeConfiguration indicates platform metadata could not be read.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	// ErrCodeStepFailed indicates a stage step aborted the sequence.
	ErrCodeStepFailed ErrorCode = "STEP_FAILED"

	// ErrCodeChartPull indicates a chart archive could not be fetched.
	ErrCodeChartPull ErrorCode = "CHART_PULL"
	// ErrCodeChartInstallation indicates helm upgrade --install failed.
	ErrCodeChartInstallation ErrorCode = "CHART_INSTALLATION"
	// ErrCodeGenerateTemplate indicates a values template could not be rendered.
	ErrCodeGenerateTemplate ErrorCode = "GENERATE_TEMPLATE"

	// ErrCodeNamespaceCreation indicates a namespace could not be created or patched.
	ErrCodeNamespaceCreation ErrorCode = "NAMESPACE_CREATION"
	// ErrCodePatchServiceAccount indicates the default service account could not be patched.
	ErrCodePatchServiceAccount ErrorCode = "PATCH_SERVICE_ACCOUNT"
	// ErrCodeGetSecret indicates a secret could not be read.
	ErrCodeGetSecret ErrorCode = "GET_SECRET"

	// ErrCodeExtractRegistryData indicates the packed registry could not be unpacked.
	ErrCodeExtractRegistryData ErrorCode = "EXTRACT_REGISTRY_DATA"
	// ErrCodeLoadImages indicates container images could not be imported.
	ErrCodeLoadImages ErrorCode = "LOAD_IMAGES"
	// ErrCodePinImageVersion indicates an image version could not be pinned.
	ErrCodePinImageVersion ErrorCode = "PIN_IMAGE_VERSION"
)

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Format prints the error chain with the captured stack for %+v.
func (e *StructuredError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "[%s] %s", e.Code, e.Message)
			if len(e.Context) > 0 {
				fmt.Fprintf(s, " %v", e.Context)
			}
			if e.Cause != nil {
				fmt.Fprintf(s, ": %+v", e.Cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	err := New(code, message)
	err.Context = context
	return err
}

// Wrap wraps an existing error with additional context.
// A stack trace is recorded unless the cause already carries one.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   withStack(cause),
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	err := Wrap(code, message, cause)
	err.Context = context
	return err
}

// IsCode reports whether any StructuredError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var se *StructuredError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Cause
	}
	return false
}

// CodeOf returns the code of the outermost StructuredError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func withStack(err error) error {
	if err == nil {
		return nil
	}
	var st stackTracer
	if stderrors.As(err, &st) {
		return err
	}
	return pkgerrors.WithStack(err)
}
