package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func ResolveAliasesHandler(c echo.Context) error {
	type resolveBody struct {
		Names []string `json:"names" validate:"required,min=1,dive,required"`
	}

	type resolveResponse struct {
		IDs        map[string]string `json:"ids"`
		Unresolved []string          `json:"unresolved"`
	}

	data := new(resolveBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	engine, trace := tracedEngine(c)
	ids, err := engine.ResolveForward(c.Request().Context(), data.Names)
	if err != nil {
		return queryFailed(c, err)
	}

	return c.JSON(http.StatusOK, resolveResponse{
		IDs:        ids,
		Unresolved: trace.Snapshot().UnresolvedAliases,
	})
}

func ReverseAliasesHandler(c echo.Context) error {
	type reverseBody struct {
		IDs        []string `json:"ids" validate:"required,min=1,dive,required"`
		ValidNames []string `json:"valid_names"`
	}

	type reverseResponse struct {
		Names map[string]string `json:"names"`
	}

	data := new(reverseBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	engine, _ := tracedEngine(c)
	names, err := engine.ResolveBackward(c.Request().Context(), data.IDs, data.ValidNames)
	if err != nil {
		return queryFailed(c, err)
	}

	return c.JSON(http.StatusOK, reverseResponse{Names: names})
}
