package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/interactome/internal/queue"
	"github.com/OFFIS-RIT/interactome/internal/server/middleware"
	"github.com/OFFIS-RIT/interactome/internal/storage"
	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
)

// CreateLoadHandler queues a bulk load. The worker records the run once it
// starts; until then the returned id is unknown to GET /api/loads.
func CreateLoadHandler(c echo.Context) error {
	type createLoadBody struct {
		Aliases  string `json:"aliases"`
		Evidence string `json:"evidence"`
		Actions  string `json:"actions"`
		Source   string `json:"source" validate:"omitempty,oneof=file s3"`
	}

	type createLoadResponse struct {
		Message string `json:"message"`
		ID      string `json:"id,omitempty"`
	}

	data := new(createLoadBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createLoadResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil || !storage.ValidSource(data.Source) {
		return c.JSON(http.StatusBadRequest, createLoadResponse{Message: "Invalid request body"})
	}
	sources := common.LoadSources{
		Aliases:  data.Aliases,
		Evidence: data.Evidence,
		Actions:  data.Actions,
	}
	if sources == (common.LoadSources{}) {
		return c.JSON(http.StatusBadRequest, createLoadResponse{Message: loader.ErrNoSources.Error()})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, createLoadResponse{Message: "Load queue unavailable"})
	}

	id, err := loader.NewRunID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createLoadResponse{Message: "Internal server error"})
	}
	body, err := json.Marshal(queue.LoadRequest{
		RunID:   id,
		Source:  data.Source,
		Sources: sources,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createLoadResponse{Message: "Internal server error"})
	}
	if err := app.Queue.Publish(c.Request().Context(), queue.LoadQueue, body); err != nil {
		logger.Error("[Server] Failed to queue load", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, createLoadResponse{Message: "Internal server error"})
	}

	logger.Info("[Server] Queued load", "id", id, "source", data.Source)
	return c.JSON(http.StatusAccepted, createLoadResponse{Message: "Load queued", ID: id})
}

func ListLoadsHandler(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		limit = n
	}

	runs, err := c.(*middleware.AppContext).App.Runs.ListLoadRuns(c.Request().Context(), limit)
	if err != nil {
		logger.Error("[Server] Failed to list load runs", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if runs == nil {
		runs = []common.LoadRun{}
	}
	return c.JSON(http.StatusOK, map[string]any{"loads": runs})
}

func GetLoadHandler(c echo.Context) error {
	run, err := c.(*middleware.AppContext).App.Runs.GetLoadRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		logger.Error("[Server] Failed to get load run", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Load not found"})
	}
	return c.JSON(http.StatusOK, run)
}
