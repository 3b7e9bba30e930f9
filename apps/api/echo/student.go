package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/registry"
	"github.com/trezcool/bursar/core/student"
)

type studentApi struct {
	reg      *registry.Registry
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, reg *registry.Registry, validate *validator.Validate) {
	api := studentApi{reg: reg, validate: validate}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, loadedMiddleware(reg))
	sg.POST("", api.save)

	dg := sg.Group("/:number")
	dg.GET("", api.retrieve, loadedMiddleware(reg))
	dg.PUT("", api.save)
	dg.DELETE("", api.destroy)
	dg.POST("/payments", api.recordPayment)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	students := api.reg.Search(ctx.QueryParam("search"))
	ordering := new(Ordering)
	ordering.Bind(ctx)
	ordering.Sort(students)
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, ok := api.reg.Student(ctx.Param("number"))
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, s)
}

// save upserts a student. The registry picks the change up asynchronously, hence 202.
// An omitted payment_history keeps the stored one.
func (api *studentApi) save(ctx echo.Context) error {
	var data student.Student
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Student")
	}
	if number := ctx.Param("number"); number != "" {
		data.StudentNumber = number
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.reg.UpsertStudent(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving student")
	}
	return ctx.JSON(http.StatusAccepted, data)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.reg.DeleteStudent(ctx.Request().Context(), ctx.Param("number")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) recordPayment(ctx echo.Context) error {
	var data student.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}

	p, err := api.reg.RecordPayment(ctx.Request().Context(), ctx.Param("number"), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}
