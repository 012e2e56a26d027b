package treefmt

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/aledsdavies/nuparse/core/ast"
)

// MarshalJSON encodes the canonical form of p. With indent the output is
// multi-line.
func MarshalJSON(p *ast.Pipeline, indent bool) ([]byte, error) {
	opts := []json.Options{json.Deterministic(true)}
	if indent {
		opts = append(opts, jsontext.WithIndent("  "))
	}
	data, err := json.Marshal(Canonicalize(p), opts...)
	if err != nil {
		return nil, fmt.Errorf("JSON encoding failed: %w", err)
	}
	return data, nil
}

// WriteJSON writes the indented JSON form of p followed by a newline.
func WriteJSON(w io.Writer, p *ast.Pipeline) error {
	data, err := MarshalJSON(p, true)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// UnmarshalJSON decodes a tree produced by MarshalJSON.
func UnmarshalJSON(data []byte) (*CanonicalTree, error) {
	var ct CanonicalTree
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("JSON decoding failed: %w", err)
	}
	return &ct, nil
}
