package child

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kindercare/kindercare/internal/platform/auth"
	"github.com/kindercare/kindercare/pkg/envelope"
	"github.com/kindercare/kindercare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the child endpoints on the parent group.
func (h *Handler) RegisterRoutes(parent *echo.Group) {
	parent.POST("/children", h.Create)
	parent.GET("/children", h.List)
	parent.GET("/children/:id", h.Get)
	parent.PATCH("/children/:id", h.Update)
	parent.DELETE("/children/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ch, err := h.svc.Create(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return envelope.Created(c, ch)
}

func (h *Handler) List(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	items, total, err := h.svc.List(c.Request().Context(), p, pg)
	if err != nil {
		return err
	}
	return envelope.List(c, items, pg, total)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ch, err := h.svc.Get(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, ch)
}

func (h *Handler) Update(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ch, err := h.svc.Update(c.Request().Context(), p, id, in)
	if err != nil {
		return err
	}
	return envelope.OK(c, ch)
}

func (h *Handler) Delete(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return envelope.Message(c, "Child deleted")
}
