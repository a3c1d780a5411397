package reactchart

import "strings"

// StateRecord remembers which children of a compound or parallel state were active
// when it was last exited. Records nest down to the active leaves.
type StateRecord struct {
	State    StateID
	Children []*StateRecord
}

// format renders the record as "a(b(c))" using local state names.
func (r *StateRecord) format(c *Chart) string {
	var b strings.Builder
	b.WriteString(c.states[r.State].name)
	if len(r.Children) > 0 {
		b.WriteByte('(')
		for i, child := range r.Children {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(child.format(c))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// capture snapshots the active configuration below id.
func (c *Chart) capture(id StateID) *StateRecord {
	rec := &StateRecord{State: id}
	for _, child := range c.states[id].children {
		cs := c.states[child]
		if cs.active && cs.kind != History {
			rec.Children = append(rec.Children, c.capture(child))
		}
	}
	return rec
}

// enterHistory resolves a History target one level up: the parent's recorded children
// are re-entered, or its default children if nothing was recorded yet. The parent is
// already active when this runs.
func (c *Chart) enterHistory(h *State) {
	parent := c.states[h.parent]
	if parent.record == nil || len(parent.record.Children) == 0 {
		c.logger.Debug("history has no record, entering defaults", "chart", c.name, "state", h.path)
		c.enterDefault(parent)
		return
	}
	c.logger.Debug("restoring history", "chart", c.name, "state", h.path, "record", parent.record.format(c))
	for _, child := range parent.record.Children {
		c.restore(child)
	}
}

func (c *Chart) restore(rec *StateRecord) {
	s := c.states[rec.State]
	c.activate(s)
	if len(rec.Children) == 0 {
		c.enterDefault(s)
		return
	}
	for _, child := range rec.Children {
		c.restore(child)
	}
}

// ClearHistory forgets the record kept for the parent of a History state.
func (c *Chart) ClearHistory(history StateID) error {
	if !c.valid(history) || c.states[history].kind != History {
		return ErrUnknownState
	}
	c.states[c.states[history].parent].record = nil
	return nil
}
