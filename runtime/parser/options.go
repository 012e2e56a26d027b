package parser

import (
	"log/slog"
	"time"
)

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Parse counts only
	TelemetryTiming                      // Parse counts + timing per phase
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Stage and frame tracing
	DebugDetailed                   // Argument-level tracing
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	telemetry    TelemetryMode
	debug        DebugLevel
	logger       *slog.Logger
	globals      []string
	strictVars   bool
	commandHints bool
}

func newConfig(opts []ParserOpt) *ParserConfig {
	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.logger == nil {
		config.logger = slog.New(slog.DiscardHandler)
	}
	return config
}

// WithTelemetryBasic enables basic telemetry (parse counts only)
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing per phase)
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() ParserOpt {
	return func(c *ParserConfig) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables detailed debug tracing (development only)
func WithDebugDetailed() ParserOpt {
	return func(c *ParserConfig) {
		c.debug = DebugDetailed
	}
}

// WithLogger sends a summary of every parse to logger at debug level.
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		c.logger = logger
	}
}

// WithGlobals names variables the host already has bound, such as those
// declared on earlier REPL lines. They resolve to frame 0.
func WithGlobals(names ...string) ParserOpt {
	return func(c *ParserConfig) {
		c.globals = append(c.globals, names...)
	}
}

// WithStrictVariables reports every unresolved variable as a warning in
// addition to listing it in the free variables.
func WithStrictVariables() ParserOpt {
	return func(c *ParserConfig) {
		c.strictVars = true
	}
}

// WithCommandHints warns when an unknown command name is close to a
// registered one. The command still runs as an external.
func WithCommandHints() ParserOpt {
	return func(c *ParserConfig) {
		c.commandHints = true
	}
}

// ParseTelemetry holds parser performance metrics (production-safe)
type ParseTelemetry struct {
	LexTime         time.Duration // Time spent lexing
	GroupTime       time.Duration // Time spent grouping
	ExpandTime      time.Duration // Time spent expanding
	TotalTime       time.Duration // Total parse time
	TokenCount      int           // Number of tokens
	StageCount      int           // Stages expanded, nested ones included
	CallCount       int           // Command calls built
	DiagnosticCount int           // Diagnostics from every phase
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_stage", "push_frame", "flag", ...
	Offset    int    // Byte offset the event refers to
	Context   string // Additional context
}
