package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/student"
)

const contextObjectKey = "object"

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *student.Service, validate *validator.Validate) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}

	g.GET("", api.query)
	g.POST("", api.create)

	// detail endpoints
	dg := g.Group("/:id", studentObjectMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("", api.partialUpdate)
	dg.DELETE("", api.destroy)
}

// studentObjectMiddleware loads the Student matching the `:id` path param into the context.
func studentObjectMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil || id <= 0 {
				return errHttpNotFound
			}
			s, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(contextObjectKey, s)
			return next(ctx)
		}
	}
}

func getContextStudent(ctx echo.Context) (student.Student, error) {
	s, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		// the detail routes are broken: stop serving them
		return student.Student{}, core.NewShutdownError("student object not found in echo.Context")
	}
	return s, nil
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryAll(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.Input
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to student.Input")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

// update requires every required field; omitted optional fields are left untouched.
func (api *studentApi) update(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	data := student.ReplacementFrom(s)
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to student.Input")
	}
	return api.save(ctx, s.ID, data)
}

// partialUpdate only changes the fields present in the body.
func (api *studentApi) partialUpdate(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	data := student.InputFrom(s)
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to student.Input")
	}
	return api.save(ctx, s.ID, data)
}

func (api *studentApi) save(ctx echo.Context, id int, data student.Input) error {
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
