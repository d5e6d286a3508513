package filtergraph

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidGraph marks structural problems detected before serialization.
var ErrInvalidGraph = errors.New("invalid filter graph")

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Pad is a chain input or output. Stream pads address an input file stream
// such as 0:v; link pads connect chains by label.
type Pad struct {
	label  string
	input  int
	kind   string
	stream bool
}

// Link returns a named link pad.
func Link(label string) Pad { return Pad{label: label} }

// Stream returns a pad for stream kind ("v" or "a") of input file index.
func Stream(index int, kind string) Pad { return Pad{input: index, kind: kind, stream: true} }

// Label returns the link label, empty for stream pads.
func (p Pad) Label() string {
	if p.stream {
		return ""
	}
	return p.label
}

func (p Pad) String() string {
	if p.stream {
		return "[" + strconv.Itoa(p.input) + ":" + p.kind + "]"
	}
	return "[" + p.label + "]"
}

// Filter is a single filter with its arguments. Arguments are joined with ':'.
type Filter struct {
	Name string
	Args []string
}

// F is shorthand for constructing a Filter.
func F(name string, args ...string) Filter { return Filter{Name: name, Args: args} }

// KV formats a key=value filter argument.
func KV(key string, value any) string { return fmt.Sprintf("%s=%v", key, value) }

func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	return f.Name + "=" + strings.Join(f.Args, ":")
}

// Chain is a linear sequence of filters.
type Chain struct {
	Inputs  []Pad
	Filters []Filter
	Outputs []Pad
}

// Append adds filters to the end of the chain.
func (c *Chain) Append(filters ...Filter) {
	c.Filters = append(c.Filters, filters...)
}

func (c Chain) String() string {
	var b strings.Builder
	for _, p := range c.Inputs {
		b.WriteString(p.String())
	}
	for i, f := range c.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	for _, p := range c.Outputs {
		b.WriteString(p.String())
	}
	return b.String()
}

// Graph is an ordered filter graph with named sinks.
type Graph struct {
	chains []Chain
	sinks  []string
}

// New returns a graph whose final outputs are the given sink labels.
func New(sinks ...string) *Graph {
	return &Graph{sinks: append([]string(nil), sinks...)}
}

// Add appends a chain.
func (g *Graph) Add(c Chain) {
	g.chains = append(g.chains, c)
}

// Chains returns a copy of the chains in order.
func (g *Graph) Chains() []Chain {
	return append([]Chain(nil), g.chains...)
}

// Validate checks label syntax, uniqueness, and link ordering.
func (g *Graph) Validate() error {
	if len(g.chains) == 0 {
		return fmt.Errorf("%w: no chains", ErrInvalidGraph)
	}
	produced := make(map[string]int)
	consumed := make(map[string]bool)
	for idx, chain := range g.chains {
		if len(chain.Filters) == 0 {
			return fmt.Errorf("%w: chain %d has no filters", ErrInvalidGraph, idx)
		}
		for _, in := range chain.Inputs {
			if in.stream {
				if in.input < 0 || (in.kind != "v" && in.kind != "a") {
					return fmt.Errorf("%w: chain %d has bad stream pad %s", ErrInvalidGraph, idx, in)
				}
				continue
			}
			if _, ok := produced[in.label]; !ok {
				return fmt.Errorf("%w: chain %d consumes %s before it is produced", ErrInvalidGraph, idx, in)
			}
			if consumed[in.label] {
				return fmt.Errorf("%w: label %s consumed more than once", ErrInvalidGraph, in)
			}
			consumed[in.label] = true
		}
		for _, out := range chain.Outputs {
			if out.stream {
				return fmt.Errorf("%w: chain %d writes to stream pad %s", ErrInvalidGraph, idx, out)
			}
			if !labelPattern.MatchString(out.label) {
				return fmt.Errorf("%w: label %q is not a valid identifier", ErrInvalidGraph, out.label)
			}
			if prev, ok := produced[out.label]; ok {
				return fmt.Errorf("%w: label %s produced by chains %d and %d", ErrInvalidGraph, out, prev, idx)
			}
			produced[out.label] = idx
		}
	}
	sinks := make(map[string]bool, len(g.sinks))
	for _, sink := range g.sinks {
		if _, ok := produced[sink]; !ok {
			return fmt.Errorf("%w: sink [%s] is never produced", ErrInvalidGraph, sink)
		}
		if consumed[sink] {
			return fmt.Errorf("%w: sink [%s] is consumed inside the graph", ErrInvalidGraph, sink)
		}
		sinks[sink] = true
	}
	for label := range produced {
		if !consumed[label] && !sinks[label] {
			return fmt.Errorf("%w: label [%s] is never consumed", ErrInvalidGraph, label)
		}
	}
	return nil
}

// String validates the graph and joins its chains with "; ".
func (g *Graph) String() (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	parts := make([]string, len(g.chains))
	for i, chain := range g.chains {
		parts[i] = chain.String()
	}
	return strings.Join(parts, "; "), nil
}
