// Copyright 2016 ETH Zurich
// Copyright 2019 ETH Zurich, Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package serrors provides errors carrying key/value context.
//
// Sentinel errors should be created with errors.New and decorated with Join
// or JoinNoStack. Wrap and New attach a stack trace, which is the expensive
// variant and should be kept off the frame forwarding path.
package serrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxPair struct {
	Key   string
	Value any
}

// details is the part shared by wrapped and joined errors.
type details struct {
	ctx   []ctxPair
	cause error
	stack *stack
}

func newDetails(cause error, withStack bool, errCtx []any) details {
	ctx := make([]ctxPair, 0, len(errCtx)/2)
	for i := 0; i+1 < len(errCtx); i += 2 {
		ctx = append(ctx, ctxPair{Key: fmt.Sprint(errCtx[i]), Value: errCtx[i+1]})
	}
	sort.SliceStable(ctx, func(a, b int) bool { return ctx[a].Key < ctx[b].Key })
	d := details{ctx: ctx, cause: cause}
	// The innermost error of this package owns the stack trace.
	if withStack && !hasStack(cause) {
		d.stack = callers()
	}
	return d
}

func hasStack(err error) bool {
	var w *wrapped
	var j *joined
	return err != nil && (errors.As(err, &w) || errors.As(err, &j))
}

func (d details) suffix() string {
	var b strings.Builder
	if len(d.ctx) != 0 {
		b.WriteString(" {")
		for i, p := range d.ctx {
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s=%v", p.Key, p.Value)
		}
		b.WriteString("}")
	}
	if d.cause != nil {
		b.WriteString(": ")
		b.WriteString(d.cause.Error())
	}
	return b.String()
}

func (d details) marshal(enc zapcore.ObjectEncoder) error {
	if d.cause != nil {
		if m, ok := d.cause.(zapcore.ObjectMarshaler); ok {
			if err := enc.AddObject("cause", m); err != nil {
				return err
			}
		} else {
			enc.AddString("cause", d.cause.Error())
		}
	}
	if d.stack != nil {
		if err := enc.AddArray("stacktrace", d.stack); err != nil {
			return err
		}
	}
	for _, p := range d.ctx {
		zap.Any(p.Key, p.Value).AddTo(enc)
	}
	return nil
}

// StackTrace returns the recorded stack, if any.
func (d details) StackTrace() []string {
	if d.stack == nil {
		return nil
	}
	return d.stack.frames()
}

// wrapped is an error with a plain string message and an optional cause.
type wrapped struct {
	details
	msg string
}

func (e *wrapped) Error() string { return e.msg + e.suffix() }

func (e *wrapped) Unwrap() error { return e.cause }

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *wrapped) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.msg)
	return e.marshal(enc)
}

// joined is an error built around a base error, typically a sentinel.
type joined struct {
	details
	base error
}

func (e *joined) Error() string { return e.base.Error() + e.suffix() }

func (e *joined) Unwrap() []error {
	if e.cause == nil {
		return []error{e.base}
	}
	return []error{e.base, e.cause}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *joined) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.base.Error())
	return e.marshal(enc)
}

// New creates an error with the given message, context and a stack trace.
func New(msg string, errCtx ...any) error {
	return &wrapped{details: newDetails(nil, true, errCtx), msg: msg}
}

// Wrap returns an error with the given message that wraps cause. A stack
// trace is recorded unless cause already carries one.
func Wrap(msg string, cause error, errCtx ...any) error {
	return &wrapped{details: newDetails(cause, true, errCtx), msg: msg}
}

// WrapNoStack is like Wrap but never records a stack trace.
func WrapNoStack(msg string, cause error, errCtx ...any) error {
	return &wrapped{details: newDetails(cause, false, errCtx), msg: msg}
}

// Join returns an error that is both err and cause, with context attached.
// It returns nil if both are nil.
func Join(err, cause error, errCtx ...any) error {
	if err == nil && cause == nil {
		return nil
	}
	if err == nil {
		err, cause = cause, nil
	}
	return &joined{details: newDetails(cause, true, errCtx), base: err}
}

// JoinNoStack is like Join but never records a stack trace.
func JoinNoStack(err, cause error, errCtx ...any) error {
	if err == nil && cause == nil {
		return nil
	}
	if err == nil {
		err, cause = cause, nil
	}
	return &joined{details: newDetails(cause, false, errCtx), base: err}
}

// IsTimeout returns whether err is or is caused by a timeout error.
func IsTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// List is a slice of errors.
type List []error

func (l List) Error() string {
	s := make([]string, 0, len(l))
	for _, err := range l {
		s = append(s, err.Error())
	}
	return "[ " + strings.Join(s, "; ") + " ]"
}

// ToError returns nil for an empty list.
func (l List) ToError() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// MarshalLogArray implements zapcore.ArrayMarshaler.
func (l List) MarshalLogArray(ae zapcore.ArrayEncoder) error {
	for _, err := range l {
		if m, ok := err.(zapcore.ObjectMarshaler); ok {
			if err := ae.AppendObject(m); err != nil {
				return err
			}
			continue
		}
		ae.AppendString(err.Error())
	}
	return nil
}
