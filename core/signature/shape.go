package signature

import (
	"strings"

	"github.com/aledsdavies/nuparse/core/types"
)

// Shape is the syntactic form a positional parameter or flag value expects.
// The expander uses it to decide how to read a token group.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeString
	ShapeInt
	ShapeNumber // int or decimal
	ShapeBool
	ShapeDuration
	ShapeFileSize
	ShapeDate
	ShapeRange
	ShapeGlob
	ShapePath
	ShapeBlock   // requires { ... }
	ShapeList    // requires [ ... ]
	ShapeSubExpr // requires ( ... )
	ShapeMath    // consumes the rest of the stage as an expression
	ShapeVarDecl // declares a variable in the current scope
)

var shapeNames = [...]string{
	ShapeAny:      "any",
	ShapeString:   "string",
	ShapeInt:      "int",
	ShapeNumber:   "number",
	ShapeBool:     "bool",
	ShapeDuration: "duration",
	ShapeFileSize: "filesize",
	ShapeDate:     "date",
	ShapeRange:    "range",
	ShapeGlob:     "glob",
	ShapePath:     "path",
	ShapeBlock:    "block",
	ShapeList:     "list",
	ShapeSubExpr:  "subexpr",
	ShapeMath:     "math",
	ShapeVarDecl:  "vardecl",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "unknown"
	}
	return shapeNames[s]
}

// ParseShape resolves a shape name from a registry file.
func ParseShape(name string) (Shape, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "any":
		return ShapeAny, true
	case "decimal":
		return ShapeNumber, true
	case "size":
		return ShapeFileSize, true
	case "pattern":
		return ShapeGlob, true
	case "condition":
		return ShapeMath, true
	}
	for s, n := range shapeNames {
		if n == name {
			return Shape(s), true
		}
	}
	return ShapeAny, false
}

// ValueKind is the literal kind a shape coerces terminal tokens into.
// KindAny means "infer from the token".
func (s Shape) ValueKind() types.Kind {
	switch s {
	case ShapeString, ShapePath:
		return types.KindString
	case ShapeInt:
		return types.KindInt
	case ShapeNumber:
		return types.KindDecimal
	case ShapeBool:
		return types.KindBool
	case ShapeDuration:
		return types.KindDuration
	case ShapeFileSize:
		return types.KindFileSize
	case ShapeDate:
		return types.KindDate
	case ShapeRange:
		return types.KindRange
	case ShapeGlob:
		return types.KindGlob
	default:
		return types.KindAny
	}
}
