// Package invariant provides contract assertions for the parser passes.
//
// A failed assertion is a bug in this module, never a problem with the input
// being parsed: malformed input always produces diagnostics instead. Every
// function panics with a *Violation on failure.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Violation describes a broken contract and where it was detected.
type Violation struct {
	Kind    string // PRECONDITION, POSTCONDITION or INVARIANT
	Message string
	File    string
	Line    int
}

func (v *Violation) Error() string {
	msg := v.Kind + " VIOLATION: " + v.Message
	if v.File != "" {
		msg += fmt.Sprintf("\n  at %s:%d", v.File, v.Line)
	}
	return msg
}

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...any) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks internal consistency, such as scanner progress.
//
//	prev := l.pos
//	tok := l.lexToken()
//	invariant.Invariant(l.pos > prev, "lexer must advance")
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nil pointers.
func NotNil(value any, name string) {
	if isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// Within panics unless 0 <= start <= end <= length. Parse results use it to
// guarantee every span indexes the source.
func Within(start, end, length int, name string) {
	if start < 0 || start > end || end > length {
		fail("POSTCONDITION", "%s [%d, %d) is outside the source [0, %d)", name, start, end, length)
	}
}

// fail panics with a Violation that records the caller of the assertion.
func fail(kind, format string, args ...any) {
	v := &Violation{Kind: kind, Message: fmt.Sprintf(format, args...)}
	pc := make([]uintptr, 1)
	if runtime.Callers(3, pc) > 0 {
		frame, _ := runtime.CallersFrames(pc).Next()
		v.File, v.Line = frame.File, frame.Line
	}
	panic(v)
}
