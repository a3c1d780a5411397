// Package visualize renders charts for humans: Graphviz DOT with the active
// configuration highlighted, and a JSON outline for tooling.
package visualize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/reactchart"
)

// DOT generates Graphviz source for c. Compound and parallel states become clusters;
// active states are filled.
func DOT(c *reactchart.Chart) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Statechart {
  rankdir=LR;
  compound=true;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)
	root := c.Root()
	if root == nil {
		buf.WriteString("}\n")
		return buf.String()
	}
	renderState(&buf, c, root, "  ")

	walk(c, root, func(s *reactchart.State) {
		for _, t := range s.Transitions() {
			target := c.State(t.Target)
			if target == nil {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", s.Path(), target.Path(), edgeLabel(t))
		}
	})
	buf.WriteString("}\n")
	return buf.String()
}

func edgeLabel(t *reactchart.Transition) string {
	label := t.Event
	if t.Automatic() {
		label = "(always)"
	}
	if t.Guard != nil {
		label += " [" + t.Guard.String() + "]"
	}
	return label
}

func renderState(buf *bytes.Buffer, c *reactchart.Chart, s *reactchart.State, indent string) {
	style := ""
	if s.Active() {
		style = " style=filled fillcolor=lightgreen"
	}
	switch s.Kind() {
	case reactchart.Compound, reactchart.Parallel:
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+s.Path())
		fmt.Fprintf(buf, "%s  label=%q;\n", indent, fmt.Sprintf("%s (%s)", s.Name(), s.Kind()))
		if s.Kind() == reactchart.Parallel {
			fmt.Fprintf(buf, "%s  style=dashed;\n", indent)
		}
		fmt.Fprintf(buf, "%s  %q [label=%q shape=ellipse%s];\n", indent, s.Path(), s.Name(), style)
		for _, id := range s.Children() {
			renderState(buf, c, c.State(id), indent+"  ")
		}
		fmt.Fprintf(buf, "%s}\n", indent)
	case reactchart.History:
		fmt.Fprintf(buf, "%s%q [label=\"H\" shape=circle];\n", indent, s.Path())
	default:
		fmt.Fprintf(buf, "%s%q [label=%q%s];\n", indent, s.Path(), s.Name(), style)
	}
}

func walk(c *reactchart.Chart, s *reactchart.State, fn func(*reactchart.State)) {
	fn(s)
	for _, id := range s.Children() {
		walk(c, c.State(id), fn)
	}
}

// Node is the JSON outline of one state.
type Node struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	Active      bool   `json:"active"`
	Initial     string `json:"initial,omitempty"`
	Transitions []Edge `json:"transitions,omitempty"`
	Children    []Node `json:"children,omitempty"`
}

// Edge is the JSON outline of one transition.
type Edge struct {
	Event  string `json:"event,omitempty"`
	Target string `json:"target"`
	Guard  string `json:"guard,omitempty"`
}

// Outline describes the tree below the root of c.
func Outline(c *reactchart.Chart) (Node, error) {
	root := c.Root()
	if root == nil {
		return Node{}, reactchart.ErrNotReady
	}
	return outline(c, root), nil
}

func outline(c *reactchart.Chart, s *reactchart.State) Node {
	n := Node{Path: s.Path(), Kind: s.Kind().String(), Active: s.Active()}
	if s.Kind() == reactchart.Compound {
		if initial := c.State(s.Initial()); initial != nil {
			n.Initial = initial.Path()
		}
	}
	for _, t := range s.Transitions() {
		e := Edge{Event: t.Event, Target: c.State(t.Target).Path()}
		if t.Guard != nil {
			e.Guard = t.Guard.String()
		}
		n.Transitions = append(n.Transitions, e)
	}
	for _, id := range s.Children() {
		n.Children = append(n.Children, outline(c, c.State(id)))
	}
	return n
}

// JSON is Outline marshalled with indentation.
func JSON(c *reactchart.Chart) ([]byte, error) {
	n, err := Outline(c)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(n, "", "  ")
}
