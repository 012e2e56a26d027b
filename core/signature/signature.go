// Package signature describes the parameter contracts of commands and the
// read-only registry the parser consults while expanding a stage.
package signature

import (
	"fmt"
	"slices"
)

// ExcessPolicy controls what happens to arguments beyond the declared
// positional arity when the signature has no rest parameter.
type ExcessPolicy int

const (
	// ExcessPassThrough keeps extra arguments as trailing external args.
	ExcessPassThrough ExcessPolicy = iota
	// ExcessError reports each extra argument as a recoverable error.
	ExcessError
	// ExcessTruncate silently drops extra arguments.
	ExcessTruncate
)

func (p ExcessPolicy) String() string {
	switch p {
	case ExcessError:
		return "error"
	case ExcessTruncate:
		return "truncate"
	default:
		return "passthrough"
	}
}

// ParseExcessPolicy resolves a policy name from a registry file.
func ParseExcessPolicy(name string) (ExcessPolicy, error) {
	switch name {
	case "", "passthrough":
		return ExcessPassThrough, nil
	case "error":
		return ExcessError, nil
	case "truncate":
		return ExcessTruncate, nil
	default:
		return ExcessPassThrough, fmt.Errorf("unknown excess policy %q", name)
	}
}

// Positional is one positional parameter.
type Positional struct {
	Name        string
	Shape       Shape
	Optional    bool
	Description string
}

// Flag is a named parameter. A flag that does not take a value is a switch.
type Flag struct {
	Name        string
	Short       rune // 0 when there is no shorthand
	Shape       Shape
	TakesValue  bool
	Required    bool
	Description string
}

// Signature is the declared contract of one command.
// Signatures are immutable once published in a Registry.
type Signature struct {
	Name        string
	Description string
	Positional  []Positional
	RestArgs    *Positional
	Flags       []Flag
	Excess      ExcessPolicy
}

// Build starts a signature for the named command.
func Build(name string) *Signature {
	return &Signature{Name: name}
}

// Describe sets the usage text.
func (s *Signature) Describe(text string) *Signature {
	s.Description = text
	return s
}

// Required appends a required positional parameter.
func (s *Signature) Required(name string, shape Shape, desc string) *Signature {
	s.Positional = append(s.Positional, Positional{Name: name, Shape: shape, Description: desc})
	return s
}

// Optional appends an optional positional parameter.
func (s *Signature) Optional(name string, shape Shape, desc string) *Signature {
	s.Positional = append(s.Positional, Positional{Name: name, Shape: shape, Optional: true, Description: desc})
	return s
}

// Rest accepts any number of trailing positionals of the given shape.
func (s *Signature) Rest(name string, shape Shape, desc string) *Signature {
	s.RestArgs = &Positional{Name: name, Shape: shape, Optional: true, Description: desc}
	return s
}

// Switch adds a boolean flag.
func (s *Signature) Switch(name string, short rune, desc string) *Signature {
	s.Flags = append(s.Flags, Flag{Name: name, Short: short, Shape: ShapeBool, Description: desc})
	return s
}

// Named adds an optional value-taking flag.
func (s *Signature) Named(name string, shape Shape, short rune, desc string) *Signature {
	s.Flags = append(s.Flags, Flag{Name: name, Short: short, Shape: shape, TakesValue: true, Description: desc})
	return s
}

// RequiredNamed adds a value-taking flag that must be present.
func (s *Signature) RequiredNamed(name string, shape Shape, short rune, desc string) *Signature {
	s.Flags = append(s.Flags, Flag{Name: name, Short: short, Shape: shape, TakesValue: true, Required: true, Description: desc})
	return s
}

// WithExcess sets the policy for arguments beyond the declared arity.
func (s *Signature) WithExcess(p ExcessPolicy) *Signature {
	s.Excess = p
	return s
}

// LookupFlag finds a flag by long name.
func (s *Signature) LookupFlag(name string) (Flag, bool) {
	for _, f := range s.Flags {
		if f.Name == name {
			return f, true
		}
	}
	return Flag{}, false
}

// LookupShort finds a flag by its shorthand character.
func (s *Signature) LookupShort(short rune) (Flag, bool) {
	if short == 0 {
		return Flag{}, false
	}
	for _, f := range s.Flags {
		if f.Short == short {
			return f, true
		}
	}
	return Flag{}, false
}

// FlagNames returns the long flag names in declaration order.
func (s *Signature) FlagNames() []string {
	names := make([]string, len(s.Flags))
	for i, f := range s.Flags {
		names[i] = f.Name
	}
	return names
}

// Validate checks structural consistency: required positionals precede
// optional ones and flag names and shorthands are unique.
func (s *Signature) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("signature has no name")
	}
	seenOptional := false
	for _, p := range s.Positional {
		if p.Optional {
			seenOptional = true
		} else if seenOptional {
			return fmt.Errorf("%s: required positional %q follows an optional one", s.Name, p.Name)
		}
	}

	var names []string
	var shorts []rune
	for _, f := range s.Flags {
		if slices.Contains(names, f.Name) {
			return fmt.Errorf("%s: duplicate flag --%s", s.Name, f.Name)
		}
		names = append(names, f.Name)
		if f.Short != 0 {
			if slices.Contains(shorts, f.Short) {
				return fmt.Errorf("%s: duplicate shorthand -%c", s.Name, f.Short)
			}
			shorts = append(shorts, f.Short)
		}
	}
	return nil
}

// External is the generic shape used for commands missing from the
// registry: everything is a positional string passed through verbatim.
func External(name string) *Signature {
	return &Signature{
		Name:     name,
		RestArgs: &Positional{Name: "args", Shape: ShapeString, Optional: true},
	}
}
