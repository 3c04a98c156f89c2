// Package edge folds raw interaction rows into one annotated edge per
// unordered node pair and interaction mode.
package edge

import (
	"sort"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

type ArrowType string

const (
	ArrowNone   ArrowType = "none"
	ArrowNormal ArrowType = "normal"
	ArrowTee    ArrowType = "tee"
)

// Direction is given relative to the sorted pair of an EdgeKey: forward
// points from A to B.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionBack    Direction = "back"
	DirectionBoth    Direction = "both"
	DirectionNone    Direction = "none"
)

// EdgeKey identifies an edge. A <= B always holds.
type EdgeKey struct {
	A    string `json:"a"`
	B    string `json:"b"`
	Mode string `json:"mode"`
}

// NewEdgeKey builds the canonical key of an interaction between a and b.
func NewEdgeKey(a, b, mode string) EdgeKey {
	if b < a {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b, Mode: mode}
}

// IsLoop reports whether the edge connects a node to itself.
func (k EdgeKey) IsLoop() bool {
	return k.A == k.B
}

func (k EdgeKey) less(o EdgeKey) bool {
	if k.A != o.A {
		return k.A < o.A
	}
	if k.B != o.B {
		return k.B < o.B
	}
	return k.Mode < o.Mode
}

// EdgeProperty is the merged annotation of all rows sharing one EdgeKey.
type EdgeProperty struct {
	Score     int       `json:"score"`
	ArrowType ArrowType `json:"arrow_type"`
	Direction Direction `json:"direction"`
	PenWidth  float64   `json:"pen_width"`
}

// EdgeSet is the result of aggregating one batch of rows.
type EdgeSet struct {
	Edges   map[EdgeKey]*EdgeProperty
	Looping []EdgeKey

	minScore int
	distance int
}

// Aggregate merges rows into one EdgeProperty per EdgeKey. The score of an
// edge is the maximum contributing score and its direction becomes both as
// soon as two contributors disagree. PenWidth is scaled into [1, 2] over the
// score range of the whole batch and computed from the merged score, so the
// result does not depend on row order.
func Aggregate(rows []common.Interaction) *EdgeSet {
	s := &EdgeSet{Edges: make(map[EdgeKey]*EdgeProperty, len(rows))}
	if len(rows) == 0 {
		return s
	}

	lo, hi := rows[0].Score, rows[0].Score
	for _, r := range rows[1:] {
		lo = min(lo, r.Score)
		hi = max(hi, r.Score)
	}
	s.minScore = lo
	s.distance = max(hi-lo, 1)

	for _, r := range rows {
		key := NewEdgeKey(r.A, r.B, r.Mode)
		arrow, dir := infer(r)

		existing, ok := s.Edges[key]
		if !ok {
			s.Edges[key] = &EdgeProperty{
				Score:     r.Score,
				ArrowType: arrow,
				Direction: dir,
			}
			if key.IsLoop() {
				s.Looping = append(s.Looping, key)
			}
			continue
		}
		existing.Score = max(existing.Score, r.Score)
		if existing.Direction != dir {
			existing.Direction = DirectionBoth
		}
	}

	for _, p := range s.Edges {
		p.PenWidth = s.penWidth(p.Score)
	}
	sortKeys(s.Looping)
	return s
}

func (s *EdgeSet) penWidth(score int) float64 {
	return float64(score-s.minScore)/float64(s.distance) + 1
}

// infer derives arrow type and direction of a single row. Evidence channels
// are undirected with a normal arrow.
func infer(r common.Interaction) (ArrowType, Direction) {
	if !common.IsActionMode(r.Mode) {
		return ArrowNormal, DirectionNone
	}

	arrow := ArrowNormal
	if r.Mode == string(common.ModeInhibition) {
		arrow = ArrowTee
	}
	if !common.IsDirectionalMode(r.Mode) {
		return arrow, DirectionNone
	}

	swapped := r.B < r.A
	switch {
	case r.AIsActing && swapped:
		return arrow, DirectionBack
	case r.AIsActing:
		return arrow, DirectionForward
	case swapped:
		return arrow, DirectionForward
	default:
		return arrow, DirectionBack
	}
}

// Keys returns the edge keys in sorted order.
func (s *EdgeSet) Keys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(s.Edges))
	for k := range s.Edges {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Len returns the number of distinct edges.
func (s *EdgeSet) Len() int {
	return len(s.Edges)
}

func sortKeys(keys []EdgeKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
}
