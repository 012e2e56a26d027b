package diag

import "github.com/aledsdavies/nuparse/core/source"

// Collector accumulates diagnostics for one parse call. It never aborts.
// The zero value is ready to use; it is not safe for concurrent use.
type Collector struct {
	diags []Diagnostic
}

// Add appends diagnostics as they are.
func (c *Collector) Add(ds ...Diagnostic) {
	c.diags = append(c.diags, ds...)
}

// Merge appends diagnostics produced by a nested pass, shifting their spans
// by delta bytes.
func (c *Collector) Merge(ds []Diagnostic, delta int) {
	for _, d := range ds {
		c.diags = append(c.diags, d.Shift(delta))
	}
}

func (c *Collector) Incomplete(code Code, span source.Span, format string, args ...any) {
	c.Add(New(Incomplete, code, span, format, args...))
}

func (c *Collector) Errorf(code Code, span source.Span, format string, args ...any) {
	c.Add(New(Error, code, span, format, args...))
}

func (c *Collector) Warnf(code Code, span source.Span, format string, args ...any) {
	c.Add(New(Warning, code, span, format, args...))
}

// Diagnostics returns a copy of everything collected so far.
func (c *Collector) Diagnostics() []Diagnostic {
	if len(c.diags) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

func (c *Collector) Len() int { return len(c.diags) }

func (c *Collector) HasIncomplete() bool { return c.count(Incomplete) > 0 }

func (c *Collector) count(sev Severity) int {
	n := 0
	for _, d := range c.diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
