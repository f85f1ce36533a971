package controllers

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/services"
)

// NeighbourhoodController serves the public reference data and the
// per-neighbourhood dominant category.
type NeighbourhoodController struct {
	svc     services.NeighbourhoodService
	weights services.CrimeWeightService
	log     *zap.Logger
}

func NewNeighbourhoodController(svc services.NeighbourhoodService, weights services.CrimeWeightService, log *zap.Logger) *NeighbourhoodController {
	return &NeighbourhoodController{svc: svc, weights: weights, log: log}
}

func (ctrl *NeighbourhoodController) Register(g *echo.Group) {
	g.GET("/neighbourhoods", ctrl.ListNeighbourhoods)
	g.GET("/neighbourhoods-with-coords", ctrl.ListWithCoords)
	g.GET("/dashboard-summary", ctrl.DashboardSummary)
	g.GET("/neighbourhood/:name/crime-weight", ctrl.CrimeWeight)
}

func (ctrl *NeighbourhoodController) ListNeighbourhoods(c echo.Context) error {
	list, err := ctrl.svc.ListNeighbourhoods(c.Request().Context())
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (ctrl *NeighbourhoodController) ListWithCoords(c echo.Context) error {
	list, err := ctrl.svc.ListWithCoords(c.Request().Context())
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (ctrl *NeighbourhoodController) DashboardSummary(c echo.Context) error {
	summary, err := ctrl.svc.DashboardSummary(c.Request().Context())
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// CrimeWeight returns the dominant category of one neighbourhood. Unknown
// names are not an error; they simply have no incidents.
func (ctrl *NeighbourhoodController) CrimeWeight(c echo.Context) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return badRequest(c, "invalid neighbourhood name")
	}
	dominant, err := ctrl.weights.DominantCategory(c.Request().Context(), name)
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, dominant)
}

// pathParam returns the decoded value of a path parameter. echo matches on
// the raw path when the client escaped characters such as ',' or '&', and
// then hands the parameter back still escaped.
func pathParam(c echo.Context, name string) (string, error) {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}
