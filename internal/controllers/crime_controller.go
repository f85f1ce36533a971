package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/models"
	"github.com/crime-analysis/backend/internal/policy"
	"github.com/crime-analysis/backend/internal/services"
)

// CrimeController serves crime incident records.
type CrimeController struct {
	svc   services.CrimeService
	guard *Guard
	log   *zap.Logger
}

func NewCrimeController(svc services.CrimeService, guard *Guard, log *zap.Logger) *CrimeController {
	return &CrimeController{svc: svc, guard: guard, log: log}
}

// Register mounts the routes on g (the /api group).
func (ctr *CrimeController) Register(g *echo.Group) {
	authn := ctr.guard.Authenticate

	g.GET("/crime/meta", ctr.GetCrimeMeta)
	g.GET("/crime-forms", ctr.ListCrimeForms, authn, ctr.guard.Require(policy.OpRead))
	g.GET("/crime-form/:id", ctr.GetCrimeForm, authn, ctr.guard.Require(policy.OpRead))
	g.POST("/crime-form", ctr.CreateCrimeForm, authn, ctr.guard.Require(policy.OpCreateIncident))
	g.PUT("/crime-form/:id", ctr.UpdateCrimeForm, authn, ctr.guard.Require(policy.OpUpdateIncident))
	g.DELETE("/crime-form/:id", ctr.DeleteCrimeForm, authn, ctr.guard.Require(policy.OpDeleteIncident))
}

func (ctr *CrimeController) GetCrimeMeta(c echo.Context) error {
	meta, err := ctr.svc.CrimeMeta(c.Request().Context())
	if err != nil {
		return writeError(c, ctr.log, err)
	}
	return c.JSON(http.StatusOK, meta)
}

// ListCrimeForms returns every record, newest first.
func (ctr *CrimeController) ListCrimeForms(c echo.Context) error {
	records, err := ctr.svc.ListCrimeForms(c.Request().Context())
	if err != nil {
		return writeError(c, ctr.log, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (ctr *CrimeController) GetCrimeForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid crime record id")
	}
	record, err := ctr.svc.GetCrimeForm(c.Request().Context(), id)
	if err != nil {
		return writeError(c, ctr.log, err)
	}
	return c.JSON(http.StatusOK, record)
}

func (ctr *CrimeController) CreateCrimeForm(c echo.Context) error {
	var req models.CrimeFormRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	record, err := ctr.svc.CreateCrimeForm(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, ctr.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": record.ID, "message": "Data saved successfully"})
}

func (ctr *CrimeController) UpdateCrimeForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid crime record id")
	}
	var req models.CrimeFormRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	record, err := ctr.svc.UpdateCrimeForm(c.Request().Context(), id, &req)
	if err != nil {
		return writeError(c, ctr.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": record.ID, "message": "Data updated successfully"})
}

func (ctr *CrimeController) DeleteCrimeForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid crime record id")
	}
	if err := ctr.svc.DeleteCrimeForm(c.Request().Context(), id); err != nil {
		return writeError(c, ctr.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
