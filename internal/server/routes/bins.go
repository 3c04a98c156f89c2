package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/interactome/pkg/quantile"
)

func BinsHandler(c echo.Context) error {
	type binsBody struct {
		Values    []float64 `json:"values" validate:"required,min=1"`
		Bins      int       `json:"bins" validate:"required,min=1"`
		Center    float64   `json:"center"`
		Diverging bool      `json:"diverging"`
	}

	data := new(binsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	var (
		bins quantile.Bins
		err  error
	)
	if data.Diverging {
		bins, err = quantile.Diverging(data.Values, data.Center, data.Bins)
	} else {
		bins, err = quantile.Linear(data.Values, data.Bins)
	}
	if err != nil {
		if errors.Is(err, quantile.ErrInvalidBins) || errors.Is(err, quantile.ErrEmptySeries) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, bins)
}
