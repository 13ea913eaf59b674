package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/grade"
)

type gradeApi struct {
	svc *grade.Service
}

func registerGradeAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *grade.Service) {
	api := gradeApi{svc: svc}

	g.GET("/jury/tasks", api.tasks, authed...)

	dg := g.Group("/deliverables/:id/grade", authed...)
	dg.GET("", api.retrieve)
	dg.PUT("", api.submit)
}

// Handlers

func (api *gradeApi) tasks(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	tasks, err := api.svc.Tasks(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	task, err := api.svc.MyGrade(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving grade")
	}
	return ctx.JSON(http.StatusOK, task)
}

func (api *gradeApi) submit(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	g, err := api.svc.Submit(ctx.Request().Context(), caller, ctx.Param("id"), data.RawValue())
	if err != nil {
		return errors.Wrap(err, "submitting grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

// GradeRequest carries the value as a JSON number or string, kept verbatim for parsing.
type GradeRequest struct {
	Value json.RawMessage `json:"value"`
}

func (gr GradeRequest) RawValue() string {
	var s string
	if err := json.Unmarshal(gr.Value, &s); err == nil {
		return s
	}
	return core.CleanString(string(gr.Value))
}
