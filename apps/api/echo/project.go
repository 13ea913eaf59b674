package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
	"github.com/trezcool/juror/core/project"
)

type projectApi struct {
	svc          *project.Service
	deliverables *deliverable.Service
	grades       *grade.Service
}

func registerProjectAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *project.Service,
	deliverables *deliverable.Service,
	grades *grade.Service,
) {
	api := projectApi{svc: svc, deliverables: deliverables, grades: grades}

	pg := g.Group("/projects", authed...)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.POST("/:id/deliverables", api.createDeliverable)
	pg.GET("/:id/deliverables", api.queryDeliverables)
}

// Handlers

func (api *projectApi) create(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data project.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}
	p, err := api.svc.Create(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, p)
}

// query lists the caller's projects, or every project for a supervisor, with their deliverable summaries.
func (api *projectApi) query(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reports, err := api.grades.Reports(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "querying reports")
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rctx := ctx.Request().Context()
	summaries, err := api.grades.ProjectSummaries(rctx, caller, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "summarizing project")
	}
	p, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving project")
	}
	return ctx.JSON(http.StatusOK, grade.ProjectReport{Project: p, Deliverables: summaries})
}

func (api *projectApi) createDeliverable(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data deliverable.NewDeliverable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDeliverable")
	}
	d, err := api.deliverables.Create(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating deliverable")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *projectApi) queryDeliverables(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	summaries, err := api.grades.ProjectSummaries(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "summarizing project")
	}
	return ctx.JSON(http.StatusOK, summaries)
}
