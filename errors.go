// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package ragmark

import (
	"errors"
	"fmt"
	"strings"
)

// OpenError is returned when the document itself cannot be opened or read.
// It is fatal for the run: nothing can be extracted.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open document %q: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// NoCapabilityError is returned when no extraction capability is available
// for a document after availability filtering of the strategy plan.
type NoCapabilityError struct {
	DocumentType DocumentType
}

func (e *NoCapabilityError) Error() string {
	if e.DocumentType != "" {
		return fmt.Sprintf("no usable extraction capability for %s document", e.DocumentType)
	}
	return "no usable extraction capability"
}

// UnsupportedFormatError is returned when no converter can handle the input format.
type UnsupportedFormatError struct {
	Extension string
	MIMEType  string
}

func (e *UnsupportedFormatError) Error() string {
	parts := []string{"unsupported format"}
	if e.Extension != "" {
		parts = append(parts, fmt.Sprintf("extension=%q", e.Extension))
	}
	if e.MIMEType != "" {
		parts = append(parts, fmt.Sprintf("mime=%q", e.MIMEType))
	}
	return strings.Join(parts, " ")
}

// FailedAttempt records a strategy that raised instead of producing
// scoreable output.
type FailedAttempt struct {
	Strategy Strategy
	Err      error
}

// ExhaustedError is returned when every planned strategy failed without
// producing any scoreable output.
type ExhaustedError struct {
	Attempts []FailedAttempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "extraction failed: no strategies attempted"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "extraction failed after %d attempt(s):", len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %v", a.Strategy, a.Err)
	}
	return b.String()
}

func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) > 0 {
		return e.Attempts[len(e.Attempts)-1].Err
	}
	return nil
}

// IsUnsupportedFormat reports whether the error is an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

// IsNoCapability reports whether the error is a NoCapabilityError.
func IsNoCapability(err error) bool {
	var target *NoCapabilityError
	return errors.As(err, &target)
}
