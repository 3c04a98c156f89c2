package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/interactome/internal/server/middleware"
	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/query"
)

type interactionQueryBody struct {
	Genes  []string `json:"genes" validate:"required,min=1,dive,required"`
	Cutoff int      `json:"cutoff" validate:"min=0"`
}

// tracedEngine returns the engine of the request together with a trace
// collecting what the request resolved.
func tracedEngine(c echo.Context) (*query.Engine, *query.QueryTrace) {
	trace := query.NewQueryTrace()
	return c.(*middleware.AppContext).App.Engine.WithRequestTracer(trace), trace
}

func queryFailed(c echo.Context, err error) error {
	var qe *query.QueryError
	if errors.As(err, &qe) {
		logger.Error("[Server] Query failed", "op", qe.Op, "err", qe.Err)
	} else {
		logger.Error("[Server] Query failed", "err", err)
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func QueryActionsHandler(c echo.Context) error {
	type response struct {
		Actions    []common.ActionResult `json:"actions"`
		Unresolved []string              `json:"unresolved"`
	}

	data := new(interactionQueryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	engine, trace := tracedEngine(c)
	rows, err := engine.QueryActions(c.Request().Context(), data.Genes, data.Cutoff)
	if err != nil {
		return queryFailed(c, err)
	}
	if rows == nil {
		rows = []common.ActionResult{}
	}

	return c.JSON(http.StatusOK, response{
		Actions:    rows,
		Unresolved: trace.Snapshot().UnresolvedAliases,
	})
}

func QueryEvidenceHandler(c echo.Context) error {
	type response struct {
		Evidence   []common.EvidenceResult `json:"evidence"`
		Unresolved []string                `json:"unresolved"`
	}

	data := new(interactionQueryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	engine, trace := tracedEngine(c)
	rows, err := engine.QueryEvidence(c.Request().Context(), data.Genes, data.Cutoff)
	if err != nil {
		return queryFailed(c, err)
	}
	if rows == nil {
		rows = []common.EvidenceResult{}
	}

	return c.JSON(http.StatusOK, response{
		Evidence:   rows,
		Unresolved: trace.Snapshot().UnresolvedAliases,
	})
}
