package parser

import (
	"github.com/aledsdavies/nuparse/core/invariant"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/core/types"
)

// GlobalFrame is the frame id of variables supplied by the host.
const GlobalFrame = 0

// Unresolved is the frame id of a variable no frame binds.
const Unresolved = -1

// FreeVariable is a reference that no active frame bound at parse time.
// A later binding check decides whether it is an error.
type FreeVariable struct {
	Name string
	Span source.Span
}

type frame struct {
	id   int
	vars map[string]types.Kind
}

// Scope is the lexical variable stack of one parse. Blocks push a frame on
// entry and pop it on exit. A Scope must not be shared between concurrent
// parses.
type Scope struct {
	globals map[string]struct{}
	frames  []*frame
	nextID  int
	free    []FreeVariable
}

// NewScope returns a scope with the given globals and one top-level frame
// for declarations outside any block.
func NewScope(globals ...string) *Scope {
	s := &Scope{globals: make(map[string]struct{}, len(globals)+1), nextID: 1}
	s.globals["nu"] = struct{}{}
	for _, g := range globals {
		s.globals[g] = struct{}{}
	}
	s.Push()
	return s
}

// Push opens a frame and returns its id. Ids are unique within the scope.
func (s *Scope) Push() int {
	f := &frame{id: s.nextID, vars: map[string]types.Kind{}}
	s.nextID++
	s.frames = append(s.frames, f)
	return f.id
}

// Pop closes the innermost frame. Popping the top-level frame panics.
func (s *Scope) Pop() {
	invariant.Precondition(len(s.frames) > 1, "pop of the top-level frame")
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth is the number of open frames, the top-level frame included.
func (s *Scope) Depth() int { return len(s.frames) }

// Current is the id of the innermost frame.
func (s *Scope) Current() int { return s.frames[len(s.frames)-1].id }

// Declare binds name in the innermost frame and returns that frame's id.
func (s *Scope) Declare(name string, kind types.Kind) int {
	f := s.frames[len(s.frames)-1]
	f.vars[name] = kind
	return f.id
}

// Resolve looks name up from the innermost frame outwards, then in the
// globals.
func (s *Scope) Resolve(name string) (int, types.Kind, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if kind, ok := s.frames[i].vars[name]; ok {
			return s.frames[i].id, kind, true
		}
	}
	if _, ok := s.globals[name]; ok {
		return GlobalFrame, types.KindAny, true
	}
	return Unresolved, types.KindAny, false
}

func (s *Scope) recordFree(name string, span source.Span) {
	s.free = append(s.free, FreeVariable{Name: name, Span: span})
}

// FreeVariables lists unresolved references in source order of discovery.
func (s *Scope) FreeVariables() []FreeVariable {
	if len(s.free) == 0 {
		return nil
	}
	return append([]FreeVariable(nil), s.free...)
}
