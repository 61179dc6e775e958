package identity

import (
	"net/http"

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

// RegisterRoutes mounts /auth and /public under api. Register and login are
// listed in the auth skipper; everything else needs a token.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	a := api.Group("/auth")
	a.POST("/register", h.Register)
	a.POST("/login", h.Login)
	a.POST("/logout", h.Logout)
	a.GET("/me", h.Me)

	api.GET("/public/clinics", h.ListClinics)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return envelope.Created(c, sess)
}

func (h *Handler) Login(c echo.Context) error {
	var in LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return envelope.OK(c, sess)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), auth.ClaimsFromContext(c.Request().Context())); err != nil {
		return err
	}
	return envelope.Message(c, "Logged out")
}

func (h *Handler) Me(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Me(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return envelope.OK(c, u)
}

func (h *Handler) ListClinics(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.ClinicDefaultLimit)
	items, total, err := h.svc.ListClinics(c.Request().Context(), c.QueryParam("q"), pg)
	if err != nil {
		return err
	}
	return envelope.List(c, items, pg, total)
}
