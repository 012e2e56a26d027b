// Package treefmt encodes parsed pipelines for tools and tests: a
// deterministic CBOR form with a content hash, JSON, and an indented
// S-expression dump.
package treefmt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/invariant"
)

// Version is the canonical format version.
const Version uint8 = 1

// CanonicalTree is the encoded form of one pipeline.
type CanonicalTree struct {
	Version uint8         `cbor:"v" json:"version"`
	Root    CanonicalNode `cbor:"r" json:"root"`
}

// CanonicalNode is a union of every tree node. Only the fields that apply to
// Type are set.
type CanonicalNode struct {
	Type  string `cbor:"t" json:"type"`
	Start int    `cbor:"s" json:"start"`
	End   int    `cbor:"e" json:"end"`

	Name     string            `cbor:"n,omitempty" json:"name,omitempty"`
	Kind     string            `cbor:"k,omitempty" json:"kind,omitempty"`  // connector, operator or value kind
	Text     string            `cbor:"x,omitempty" json:"text,omitempty"`  // literal value, raw text or message
	Frame    *int              `cbor:"f,omitempty" json:"frame,omitempty"` // scope frame of variables and blocks
	External bool              `cbor:"ext,omitempty" json:"external,omitzero"`
	Members  []CanonicalMember `cbor:"m,omitempty" json:"members,omitempty"`
	Params   []CanonicalNode   `cbor:"p,omitempty" json:"params,omitempty"`
	Children []CanonicalNode   `cbor:"c,omitempty" json:"children,omitempty"`
	Partial  *CanonicalNode    `cbor:"pa,omitempty" json:"partial,omitempty"`
}

// CanonicalMember is one path accessor.
type CanonicalMember struct {
	Name  string `cbor:"n,omitempty" json:"name,omitempty"`
	Index *int   `cbor:"i,omitempty" json:"index,omitempty"`
}

// Canonicalize converts a pipeline into its encoded form.
func Canonicalize(p *ast.Pipeline) *CanonicalTree {
	invariant.NotNil(p, "pipeline")
	return &CanonicalTree{Version: Version, Root: toCanonical(p)}
}

func node(typ string, n ast.Node) CanonicalNode {
	s := n.Span()
	return CanonicalNode{Type: typ, Start: s.Start, End: s.End}
}

func intPtr(v int) *int { return &v }

func toCanonical(n ast.Node) CanonicalNode {
	switch n := n.(type) {
	case *ast.Pipeline:
		cn := node("pipeline", n)
		for _, st := range n.Stages {
			cn.Children = append(cn.Children, toCanonical(st))
		}
		return cn
	case *ast.Stage:
		cn := node("stage", n)
		cn.Kind = n.Connector.String()
		cn.Children = children(n.Expr)
		return cn
	case *ast.Call:
		cn := node("call", n)
		cn.Name = n.Name
		cn.External = n.External
		for _, c := range ast.Children(n) {
			cn.Children = append(cn.Children, toCanonical(c))
		}
		return cn
	case *ast.Flag:
		cn := node("flag", n)
		cn.Name = n.Name
		cn.Children = children(n.Value)
		return cn
	case *ast.Positional:
		cn := node("positional", n)
		cn.Name = n.Name
		cn.Children = children(n.Value)
		return cn
	case *ast.Literal:
		cn := node("literal", n)
		cn.Kind = n.Value.Kind().String()
		cn.Text = n.Value.String()
		return cn
	case *ast.Variable:
		cn := node("variable", n)
		cn.Name = n.Name
		cn.Frame = intPtr(n.Frame)
		return cn
	case *ast.VarDecl:
		cn := node("vardecl", n)
		cn.Name = n.Name
		cn.Frame = intPtr(n.Frame)
		return cn
	case *ast.Path:
		cn := node("path", n)
		for _, m := range n.Members {
			cm := CanonicalMember{Name: m.Name}
			if m.IsIndex {
				cm.Index = intPtr(m.Index)
			}
			cn.Members = append(cn.Members, cm)
		}
		cn.Children = children(n.Base)
		return cn
	case *ast.Binary:
		cn := node("binary", n)
		cn.Kind = n.Op.String()
		// Open range ends keep their position as an explicit "nothing".
		for _, side := range []ast.Expr{n.Left, n.Right} {
			if side == nil {
				cn.Children = append(cn.Children, CanonicalNode{Type: "nothing", Start: cn.Start, End: cn.Start})
				continue
			}
			cn.Children = append(cn.Children, toCanonical(side))
		}
		return cn
	case *ast.Block:
		cn := node("block", n)
		cn.Frame = intPtr(n.FrameID)
		for _, p := range n.Params {
			cn.Params = append(cn.Params, CanonicalNode{
				Type: "param", Start: p.Loc.Start, End: p.Loc.End, Name: p.Name, Kind: p.Type,
			})
		}
		cn.Children = children(n.Body)
		return cn
	case *ast.List:
		cn := node("list", n)
		for _, it := range n.Items {
			cn.Children = append(cn.Children, toCanonical(it))
		}
		return cn
	case *ast.SubExpression:
		cn := node("subexpr", n)
		cn.Children = children(n.Body)
		return cn
	case *ast.Interpolated:
		cn := node("interpolated", n)
		for _, part := range n.Parts {
			cn.Children = append(cn.Children, toCanonical(part))
		}
		return cn
	case *ast.ExternalArg:
		cn := node("external-arg", n)
		cn.Text = n.Raw
		if n.Interp != nil {
			cn.Children = children(n.Interp)
		}
		return cn
	case *ast.Error:
		cn := node("error", n)
		cn.Text = n.Message
		if n.Partial != nil {
			p := toCanonical(n.Partial)
			cn.Partial = &p
		}
		return cn
	default:
		return node(fmt.Sprintf("%T", n), n)
	}
}

func children(nodes ...ast.Node) []CanonicalNode {
	var out []CanonicalNode
	for _, n := range nodes {
		if n == nil || isNil(n) {
			continue
		}
		out = append(out, toCanonical(n))
	}
	return out
}

// isNil catches typed nil pointers stored in interfaces.
func isNil(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Pipeline:
		return n == nil
	case *ast.Interpolated:
		return n == nil
	}
	return false
}

// MarshalBinary produces deterministic CBOR encoding of the canonical tree.
func (ct *CanonicalTree) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	// Alias to stop CBOR from calling MarshalBinary recursively.
	type canonicalTreeAlias CanonicalTree
	data, err := encMode.Marshal((*canonicalTreeAlias)(ct))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a tree produced by MarshalBinary.
func (ct *CanonicalTree) UnmarshalBinary(data []byte) error {
	type canonicalTreeAlias CanonicalTree
	if err := cbor.Unmarshal(data, (*canonicalTreeAlias)(ct)); err != nil {
		return fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if ct.Version != Version {
		return fmt.Errorf("unsupported tree format version %d", ct.Version)
	}
	return nil
}

// Hash is the BLAKE2b-256 digest of the canonical encoding. Two parses with
// the same structure, values and spans hash equal.
func (ct *CanonicalTree) Hash() ([32]byte, error) {
	data, err := ct.MarshalBinary()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}
