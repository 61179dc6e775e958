package appointment

import (
	"context"
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

func (h *Handler) RegisterRoutes(parent, clinic *echo.Group) {
	parent.POST("/appointments", h.Request)
	parent.GET("/appointments", h.ListForParent)
	parent.GET("/appointments/:id", h.GetForParent)
	parent.PATCH("/appointments/:id/cancel", h.CancelByParent)

	clinic.GET("/appointments", h.ListForClinic)
	clinic.GET("/appointments/:id", h.GetForClinic)
	clinic.PATCH("/appointments/:id/approve", h.Approve)
	clinic.PATCH("/appointments/:id/reschedule", h.Reschedule)
	clinic.PATCH("/appointments/:id/cancel", h.CancelByClinic)
	clinic.PATCH("/appointments/:id/complete", h.Complete)
}

func principalAndID(c echo.Context) (auth.Principal, uuid.UUID, error) {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return p, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return p, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return p, id, nil
}

func statusParam(c echo.Context) (Status, error) {
	s := c.QueryParam("status")
	if s == "" {
		return "", nil
	}
	return ParseStatus(s)
}

func (h *Handler) Request(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Request(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return envelope.Created(c, a)
}

func (h *Handler) ListForParent(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	status, err := statusParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	items, total, err := h.svc.ListForParent(c.Request().Context(), p, status, pg)
	if err != nil {
		return err
	}
	return envelope.List(c, items, pg, total)
}

func (h *Handler) GetForParent(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetForParent(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, a)
}

func (h *Handler) CancelByParent(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.CancelByParent(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, a)
}

func (h *Handler) ListForClinic(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	status, err := statusParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c, pagination.ClinicDefaultLimit)
	items, total, err := h.svc.ListForClinic(c.Request().Context(), p, status, pg)
	if err != nil {
		return err
	}
	return envelope.List(c, items, pg, total)
}

func (h *Handler) GetForClinic(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetForClinic(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, a)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.decide(c, h.svc.Approve)
}

func (h *Handler) Reschedule(c echo.Context) error {
	return h.decide(c, h.svc.Reschedule)
}

func (h *Handler) decide(c echo.Context, fn func(ctx context.Context, p auth.Principal, id uuid.UUID, d Decision) (*Appointment, error)) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	var d Decision
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := fn(c.Request().Context(), p, id, d)
	if err != nil {
		return err
	}
	return envelope.OK(c, a)
}

type cancelRequest struct {
	ClinicMessage *string `json:"clinicMessage"`
}

func (h *Handler) CancelByClinic(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.CancelByClinic(c.Request().Context(), p, id, req.ClinicMessage)
	if err != nil {
		return err
	}
	return envelope.OK(c, a)
}

func (h *Handler) Complete(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Complete(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, a)
}
