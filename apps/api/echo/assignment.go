package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/chuoapp/chuo/core/assignment"
)

type assignmentApi struct {
	svc        assignment.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
	now        func() time.Time
}

func registerAssignmentAPI(g *echo.Group, svc assignment.ServiceInterface, validate *validator.Validate, translator ut.Translator, now func() time.Time) {
	a := assignmentApi{svc: svc, validate: validate, translator: translator, now: now}

	ag := g.Group("/assignments")
	ag.POST("", a.assignmentCreate)
	ag.GET("", a.assignmentQuery)

	dg := ag.Group("/:id")
	dg.GET("", a.assignmentRetrieve)
	dg.PUT("", a.assignmentUpdate)
	dg.DELETE("", a.assignmentDestroy)
	dg.POST("/toggle-status", a.assignmentToggleStatus)
}

// Handlers

func (api *assignmentApi) assignmentCreate(c echo.Context) error {
	data := new(assignment.NewAssignment)
	if err := c.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, warn, err := api.svc.Create(getContextOwner(c), *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newAssignmentResponse(a, warn, api.now()))
}

func (api *assignmentApi) assignmentQuery(c echo.Context) error {
	filter := new(assignment.QueryFilter)
	if err := c.Bind(filter); err != nil {
		return err
	}

	res, err := api.svc.Filter(getContextOwner(c), *filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAssignmentListResponse(res, api.now()))
}

func (api *assignmentApi) assignmentRetrieve(c echo.Context) error {
	a, err := api.svc.GetByID(getContextOwner(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAssignmentResponse(a, nil, api.now()))
}

func (api *assignmentApi) assignmentUpdate(c echo.Context) error {
	data := new(assignment.UpdateAssignment)
	if err := c.Bind(data); err != nil {
		return err
	}

	// blank fields keep the stored value; fetch the record so validation can
	// back-fill them before the service applies the update
	orig, err := api.svc.GetByID(getContextOwner(c), c.Param("id"))
	if err != nil {
		return err
	}
	if err = data.Validate(api.validate, orig); err != nil {
		return err
	}

	a, warn, err := api.svc.Update(getContextOwner(c), orig.ID, *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAssignmentResponse(a, warn, api.now()))
}

func (api *assignmentApi) assignmentDestroy(c echo.Context) error {
	warn, err := api.svc.Delete(getContextOwner(c), c.Param("id"))
	if err != nil {
		return err
	}
	if warn != nil {
		return c.JSON(http.StatusOK, DeleteResponse{Warning: warn})
	}
	return c.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) assignmentToggleStatus(c echo.Context) error {
	a, warn, err := api.svc.ToggleStatus(getContextOwner(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAssignmentResponse(a, warn, api.now()))
}
