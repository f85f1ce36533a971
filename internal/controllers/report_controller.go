package controllers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/policy"
	"github.com/crime-analysis/backend/internal/services"
)

// ReportController serves report rows and rendered exports.
type ReportController struct {
	svc   services.ReportService
	guard *Guard
	log   *zap.Logger
}

func NewReportController(svc services.ReportService, guard *Guard, log *zap.Logger) *ReportController {
	return &ReportController{svc: svc, guard: guard, log: log}
}

// Register mounts the report routes under /reports on g.
func (ctrl *ReportController) Register(g *echo.Group) {
	r := g.Group("/reports")
	read := ctrl.guard.Require(policy.OpRead)

	r.GET("/crime", ctrl.CrimeReport, ctrl.guard.Authenticate, read)
	r.GET("/general", ctrl.GeneralReport, ctrl.guard.Authenticate, read)
	r.GET("/quality", ctrl.QualityReport, ctrl.guard.Authenticate, read)
	r.GET("/export", ctrl.Export, ctrl.guard.Authenticate, ctrl.guard.Require(policy.OpExportReport))
}

func (ctrl *ReportController) CrimeReport(c echo.Context) error {
	rows, err := ctrl.svc.CrimeReport(c.Request().Context())
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (ctrl *ReportController) GeneralReport(c echo.Context) error {
	rows, err := ctrl.svc.GeneralReport(c.Request().Context())
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (ctrl *ReportController) QualityReport(c echo.Context) error {
	q, err := ctrl.svc.QualityReport(c.Request().Context())
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Export renders a report document. The role check has already run, so an
// unauthorised caller never learns whether the type was valid.
func (ctrl *ReportController) Export(c echo.Context) error {
	file, err := ctrl.svc.Export(c.Request().Context(), c.QueryParam("type"), c.QueryParam("format"))
	if err != nil {
		return writeError(c, ctrl.log, err)
	}

	ctrl.log.Info("report exported",
		zap.String("type", c.QueryParam("type")),
		zap.String("filename", file.Filename),
		zap.Int("bytes", len(file.Data)),
	)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", file.Filename))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}
