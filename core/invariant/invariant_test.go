package invariant_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/nuparse/core/invariant"
)

// violation runs f and returns the Violation it panicked with, or nil.
func violation(t *testing.T, f func()) (v *invariant.Violation) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			v, ok = r.(*invariant.Violation)
			require.True(t, ok, "panic value %T is not a *Violation", r)
		}
	}()
	f()
	return nil
}

func TestPassingAssertions(t *testing.T) {
	var n *int
	x := 1
	assert.Nil(t, violation(t, func() {
		invariant.Precondition(x == 1, "precondition")
		invariant.Postcondition(len("abc") == 3, "postcondition")
		invariant.Invariant(true, "invariant")
		invariant.NotNil(&x, "x")
		invariant.Within(0, 0, 0, "empty span")
		invariant.Within(2, 5, 5, "tail span")
	}))
	assert.NotNil(t, violation(t, func() { invariant.NotNil(n, "n") }))
}

func TestViolationKinds(t *testing.T) {
	tests := []struct {
		name    string
		f       func()
		kind    string
		message string
	}{
		{"precondition", func() { invariant.Precondition(false, "size %d", 3) }, "PRECONDITION", "size 3"},
		{"postcondition", func() { invariant.Postcondition(false, "result") }, "POSTCONDITION", "result"},
		{"invariant", func() { invariant.Invariant(false, "lexer must advance") }, "INVARIANT", "lexer must advance"},
		{"nil", func() { invariant.NotNil(nil, "registry") }, "PRECONDITION", "registry must not be nil"},
		{"typed nil map", func() { invariant.NotNil(map[string]int(nil), "m") }, "PRECONDITION", "m must not be nil"},
		{"past end", func() { invariant.Within(3, 9, 5, "token") }, "POSTCONDITION", "token [3, 9) is outside the source [0, 5)"},
		{"reversed", func() { invariant.Within(4, 2, 5, "span") }, "POSTCONDITION", "span [4, 2)"},
		{"negative", func() { invariant.Within(-1, 2, 5, "span") }, "POSTCONDITION", "span [-1, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := violation(t, tt.f)
			require.NotNil(t, v)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Contains(t, v.Message, tt.message)
			assert.True(t, strings.HasPrefix(v.Error(), tt.kind+" VIOLATION: "))
		})
	}
}

func TestViolationRecordsCaller(t *testing.T) {
	v := violation(t, func() { invariant.Invariant(false, "here") })
	require.NotNil(t, v)
	assert.True(t, strings.HasSuffix(v.File, "invariant_test.go"), v.File)
	assert.Positive(t, v.Line)
	assert.Contains(t, v.Error(), "invariant_test.go:")
}
