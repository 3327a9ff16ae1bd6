// Package cascade describes which records follow a parent into soft deletion.
//
// The graph is pure data: each Edge names a child kind, the column that links
// it to the parent and the rule used to find it. Adding a relation means adding
// an Edge; the orchestrator that walks the graph does not change.
package cascade

import (
	"errors"
	"fmt"
)

// Kind names a soft-deletable collection.
type Kind string

// Kinds known to the default graph.
const (
	KindLot        Kind = "lot"
	KindAttendant  Kind = "attendant"
	KindStudent    Kind = "student"
	KindAssignment Kind = "assignment"
	KindSchedule   Kind = "schedule"
	KindVehicle    Kind = "vehicle"
)

// Rule selects how an edge finds children.
type Rule int

const (
	// RuleReferrers: children whose Column holds the parent's id.
	RuleReferrers Rule = iota
	// RuleReferenced: the single child the parent's Column points at.
	RuleReferenced
)

// Guard vetoes a child while any active record of Kind still has Column equal to the child's id.
type Guard struct {
	Kind   Kind
	Column string
}

// Edge is one dependency between a parent kind and a child kind.
type Edge struct {
	From   Kind
	To     Kind
	Rule   Rule
	Column string
	Guard  *Guard
}

// Target identifies one record.
type Target struct {
	Kind Kind
	ID   string
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Kind, t.ID)
}

// Domain errors
var (
	ErrEmptyColumn   = errors.New("cascade edge column cannot be empty")
	ErrDuplicateEdge = errors.New("cascade edge already declared")
	ErrNotRoot       = errors.New("kind cannot be deleted directly")
)

// Graph holds edges keyed by parent kind plus the kinds callers may delete directly.
type Graph struct {
	edges map[Kind][]Edge
	roots map[Kind]bool
}

// NewGraph builds a graph.
// PRE: every edge has a column; no two edges share (From, To, Column)
// POST: EdgesFrom returns edges in declaration order
func NewGraph(roots []Kind, edges ...Edge) (*Graph, error) {
	g := &Graph{edges: make(map[Kind][]Edge), roots: make(map[Kind]bool)}
	for _, r := range roots {
		g.roots[r] = true
	}
	for _, e := range edges {
		if e.Column == "" || (e.Guard != nil && e.Guard.Column == "") {
			return nil, fmt.Errorf("%s->%s: %w", e.From, e.To, ErrEmptyColumn)
		}
		for _, existing := range g.edges[e.From] {
			if existing.To == e.To && existing.Column == e.Column {
				return nil, fmt.Errorf("%s->%s via %s: %w", e.From, e.To, e.Column, ErrDuplicateEdge)
			}
		}
		g.edges[e.From] = append(g.edges[e.From], e)
	}
	return g, nil
}

// EdgesFrom lists the edges leaving kind.
func (g *Graph) EdgesFrom(kind Kind) []Edge {
	return g.edges[kind]
}

// CheckRoot reports whether kind may start a cascade.
func (g *Graph) CheckRoot(kind Kind) error {
	if !g.roots[kind] {
		return fmt.Errorf("%s: %w", kind, ErrNotRoot)
	}
	return nil
}

// DefaultGraph returns the relations between the parking collections.
//
// Schedules are shared by every lot on the same day, so the
// assignment->schedule edge is guarded by the remaining active assignments.
func DefaultGraph() *Graph {
	g, err := NewGraph(
		[]Kind{KindLot, KindAttendant, KindStudent},
		Edge{From: KindLot, To: KindAssignment, Rule: RuleReferrers, Column: "parking_lot_id"},
		Edge{From: KindAttendant, To: KindAssignment, Rule: RuleReferrers, Column: "parking_attendant_id"},
		Edge{
			From:   KindAssignment,
			To:     KindSchedule,
			Rule:   RuleReferenced,
			Column: "parking_schedule_id",
			Guard:  &Guard{Kind: KindAssignment, Column: "parking_schedule_id"},
		},
		Edge{From: KindSchedule, To: KindAssignment, Rule: RuleReferrers, Column: "parking_schedule_id"},
		Edge{From: KindStudent, To: KindVehicle, Rule: RuleReferrers, Column: "student_id"},
	)
	if err != nil {
		panic(err)
	}
	return g
}
