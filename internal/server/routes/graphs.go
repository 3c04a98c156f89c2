package routes

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/interactome/pkg/graph"
)

type graphBody struct {
	Genes     []string `json:"genes" validate:"required,min=1,dive,required"`
	Cutoff    int      `json:"cutoff" validate:"min=0"`
	Modes     []string `json:"modes"`
	Looping   bool     `json:"looping"`
	Adjacency bool     `json:"adjacency"`
}

type graphResponse struct {
	*graph.Graph
	Adjacency  [][]int  `json:"adjacency,omitempty"`
	Unresolved []string `json:"unresolved"`
}

type buildFunc func(b *graph.Builder, ctx context.Context, genes []string, cutoff int, opts graph.Options) (*graph.Graph, error)

func buildGraph(c echo.Context, build buildFunc) error {
	data := new(graphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	engine, trace := tracedEngine(c)
	g, err := build(graph.NewBuilder(engine), c.Request().Context(), data.Genes, data.Cutoff, graph.Options{
		Modes:   data.Modes,
		Looping: data.Looping,
	})
	if err != nil {
		return queryFailed(c, err)
	}

	res := graphResponse{
		Graph:      g,
		Unresolved: trace.Snapshot().UnresolvedAliases,
	}
	if data.Adjacency {
		res.Adjacency = g.Adjacency()
	}
	return c.JSON(http.StatusOK, res)
}

func ActionGraphHandler(c echo.Context) error {
	return buildGraph(c, (*graph.Builder).BuildActionGraph)
}

func EvidenceGraphHandler(c echo.Context) error {
	return buildGraph(c, (*graph.Builder).BuildEvidenceGraph)
}
