package models

import "sort"

// Position is a (column, row) slot in a gallery grid.
type Position struct {
	Column int `json:"column" yaml:"column"`
	Row    int `json:"row" yaml:"row"`
}

// Before reports whether p precedes other in row-major order.
func (p Position) Before(other Position) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Column < other.Column
}

// Grid maps column -> row -> attachment for one scope.
type Grid map[int]map[int]Attachment

// NewGrid builds a grid from a flat attachment list. Later entries win on
// duplicate positions; stores never produce those.
func NewGrid(attachments []Attachment) Grid {
	grid := Grid{}
	for _, a := range attachments {
		grid.put(a)
	}
	return grid
}

func (g Grid) put(a Attachment) {
	rows, ok := g[a.Column]
	if !ok {
		rows = map[int]Attachment{}
		g[a.Column] = rows
	}
	rows[a.Row] = a
}

// At returns the attachment at (column, row).
func (g Grid) At(column, row int) (Attachment, bool) {
	rows, ok := g[column]
	if !ok {
		return Attachment{}, false
	}
	a, ok := rows[row]
	return a, ok
}

// Count returns the number of attachments in the grid.
func (g Grid) Count() int {
	n := 0
	for _, rows := range g {
		n += len(rows)
	}
	return n
}

// Entries returns the attachments in row-major order.
func (g Grid) Entries() []Attachment {
	out := make([]Attachment, 0, g.Count())
	for _, rows := range g {
		for _, a := range rows {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Position().Before(out[j].Position())
	})
	return out
}

// Find returns the attachment with id.
func (g Grid) Find(id string) (Attachment, bool) {
	for _, rows := range g {
		for _, a := range rows {
			if a.ID == id {
				return a, true
			}
		}
	}
	return Attachment{}, false
}
