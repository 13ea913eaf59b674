package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
)

type deliverableApi struct {
	svc    *deliverable.Service
	grades *grade.Service
}

func registerDeliverableAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *deliverable.Service, grades *grade.Service) {
	api := deliverableApi{svc: svc, grades: grades}

	dg := g.Group("/deliverables", authed...)
	dg.GET("/:id", api.retrieve)
	dg.PUT("/:id/link", api.updateLink)
}

// Handlers

// retrieve returns the anonymous summary of the deliverable.
func (api *deliverableApi) retrieve(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.grades.Summary(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "summarizing deliverable")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *deliverableApi) updateLink(ctx echo.Context) error {
	caller, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data LinkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkRequest")
	}
	d, err := api.svc.SetLink(ctx.Request().Context(), caller, ctx.Param("id"), data.Link)
	if err != nil {
		return errors.Wrap(err, "updating link")
	}
	return ctx.JSON(http.StatusOK, d)
}

type LinkRequest struct {
	Link string `json:"link"`
}
