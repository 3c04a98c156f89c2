// Package graph assembles the interaction graph of a gene set: it resolves
// and queries through a query engine, aggregates the rows into edges and
// returns plain node and edge lists for an external renderer.
package graph

import (
	"context"
	"slices"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/edge"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
)

// Querier is the part of the query engine the assembler needs.
type Querier interface {
	QueryActions(ctx context.Context, genes []string, cutoff int) ([]common.ActionResult, error)
	QueryEvidence(ctx context.Context, genes []string, cutoff int) ([]common.EvidenceResult, error)
}

// Options select what ends up in the graph. An empty Modes keeps every
// mode. Self-loops are dropped unless Looping is set; they are listed in
// Graph.Looping either way.
type Options struct {
	Modes   []string `json:"modes,omitempty"`
	Looping bool     `json:"looping,omitempty"`
}

type Edge struct {
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Mode      string         `json:"mode"`
	Score     int            `json:"score"`
	ArrowType edge.ArrowType `json:"arrow_type"`
	Direction edge.Direction `json:"direction"`
	PenWidth  float64        `json:"pen_width"`
}

// Graph holds sorted nodes and edges. Edge direction is relative to
// Source, Target, which are in ascending order.
type Graph struct {
	Nodes        []string       `json:"nodes"`
	Edges        []Edge         `json:"edges"`
	Looping      []edge.EdgeKey `json:"looping"`
	Disconnected []string       `json:"disconnected"`
}

type Builder struct {
	engine Querier
}

func NewBuilder(engine Querier) *Builder {
	return &Builder{engine: engine}
}

// BuildActionGraph builds the action-mode graph of genes.
func (b *Builder) BuildActionGraph(ctx context.Context, genes []string, cutoff int, opts Options) (*Graph, error) {
	rows, err := b.engine.QueryActions(ctx, genes, cutoff)
	if err != nil {
		return nil, err
	}
	return Assemble(genes, edge.Aggregate(common.FromActionResults(rows)), opts), nil
}

// BuildEvidenceGraph builds the evidence-channel graph of genes.
func (b *Builder) BuildEvidenceGraph(ctx context.Context, genes []string, cutoff int, opts Options) (*Graph, error) {
	rows, err := b.engine.QueryEvidence(ctx, genes, cutoff)
	if err != nil {
		return nil, err
	}
	return Assemble(genes, edge.Aggregate(common.FromEvidenceResults(rows)), opts), nil
}

// Assemble turns an aggregated edge set into a graph over genes.
func Assemble(genes []string, set *edge.EdgeSet, opts Options) *Graph {
	modes := make(map[string]struct{}, len(opts.Modes))
	for _, m := range opts.Modes {
		modes[m] = struct{}{}
	}

	g := &Graph{
		Nodes:        []string{},
		Edges:        []Edge{},
		Looping:      append([]edge.EdgeKey{}, set.Looping...),
		Disconnected: []string{},
	}
	nodes := make(map[string]struct{})
	for _, k := range set.Keys() {
		if k.IsLoop() && !opts.Looping {
			continue
		}
		if _, ok := modes[k.Mode]; len(modes) > 0 && !ok {
			continue
		}
		p := set.Edges[k]
		g.Edges = append(g.Edges, Edge{
			Source:    k.A,
			Target:    k.B,
			Mode:      k.Mode,
			Score:     p.Score,
			ArrowType: p.ArrowType,
			Direction: p.Direction,
			PenWidth:  p.PenWidth,
		})
		nodes[k.A] = struct{}{}
		nodes[k.B] = struct{}{}
	}
	for n := range nodes {
		g.Nodes = append(g.Nodes, n)
	}
	slices.Sort(g.Nodes)

	seen := make(map[string]struct{}, len(genes))
	for _, gene := range genes {
		if _, ok := nodes[gene]; ok {
			continue
		}
		if _, ok := seen[gene]; ok {
			continue
		}
		seen[gene] = struct{}{}
		g.Disconnected = append(g.Disconnected, gene)
	}
	slices.Sort(g.Disconnected)

	logger.Debug("[Graph] Assembled graph", "nodes", len(g.Nodes), "edges", len(g.Edges), "disconnected", len(g.Disconnected))
	return g
}

// Adjacency returns the symmetric matrix over Nodes holding the highest
// edge score between each pair, or 0 without an edge.
func (g *Graph) Adjacency() [][]int {
	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n] = i
	}
	m := make([][]int, len(g.Nodes))
	for i := range m {
		m[i] = make([]int, len(g.Nodes))
	}
	for _, e := range g.Edges {
		i, j := index[e.Source], index[e.Target]
		if e.Score > m[i][j] {
			m[i][j] = e.Score
			m[j][i] = e.Score
		}
	}
	return m
}
