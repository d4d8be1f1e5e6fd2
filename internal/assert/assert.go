// Copyright 2025 go-highway Authors
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

// Package assert is the process-wide precondition checker used by the
// sub-group packages. A failed check logs the violation and panics.
//
// Mask checks are guarded by Enabled, a build-time constant that is false
// when building with the subgroup_nocheck tag:
//
//	if assert.Enabled && i >= m.width {
//	    assert.Fail(assert.IndexOutOfRange, "Mask.SetBit", "index %d, width %d", i, m.width)
//	}
package assert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ErrPrecondition is matched by every Violation via errors.Is.
var ErrPrecondition = errors.New("precondition violation")

// Kind classifies a precondition violation.
type Kind int

const (
	// InvalidWidth is a mask or group width that is not a power of two in
	// [1, MaxWidth].
	InvalidWidth Kind = iota + 1

	// WidthMismatch is a binary mask operation over different widths.
	WidthMismatch

	// IndexOutOfRange is a lane index outside [0, width).
	IndexOutOfRange

	// NegativeShift is a shift by a negative amount.
	NegativeShift

	// Divergence is a ballot round that not every lane of the group joined.
	Divergence
)

// String returns the kind name used in log records and error text.
func (k Kind) String() string {
	switch k {
	case InvalidWidth:
		return "invalid_width"
	case WidthMismatch:
		return "width_mismatch"
	case IndexOutOfRange:
		return "index_out_of_range"
	case NegativeShift:
		return "negative_shift"
	case Divergence:
		return "divergence"
	default:
		return "unknown"
	}
}

// Violation describes a broken precondition.
type Violation struct {
	Kind Kind
	Op   string
	Msg  string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s in %s: %s", ErrPrecondition, v.Kind, v.Op, v.Msg)
}

// Is reports whether target is ErrPrecondition.
func (v *Violation) Is(target error) bool {
	return target == ErrPrecondition
}

var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger violations are reported to before the
// panic. A nil logger restores slog.Default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func currentLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// New builds a Violation without raising it.
func New(kind Kind, op, format string, args ...any) *Violation {
	return &Violation{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Fail logs a violation and panics with it.
func Fail(kind Kind, op, format string, args ...any) {
	Raise(New(kind, op, format, args...))
}

// Report logs v without panicking.
func Report(v *Violation) {
	currentLogger().LogAttrs(context.Background(), slog.LevelError, "precondition violation",
		slog.String("kind", v.Kind.String()),
		slog.String("op", v.Op),
		slog.String("msg", v.Msg),
	)
}

// Raise logs v and panics with it.
func Raise(v *Violation) {
	Report(v)
	panic(v)
}

// That fails with kind when ok is false and checks are enabled.
// Prefer the explicit `if Enabled && ...` form on hot paths; the variadic
// arguments here are evaluated even when the check passes.
func That(ok bool, kind Kind, op, format string, args ...any) {
	if Enabled && !ok {
		Fail(kind, op, format, args...)
	}
}

// Recover converts a recovered panic value into an error. Violations and
// errors are returned as-is; anything else is wrapped.
func Recover(r any) error {
	switch v := r.(type) {
	case nil:
		return nil
	case error:
		return v
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
