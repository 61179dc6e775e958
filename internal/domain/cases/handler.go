package cases

import (
	"mime"
	"net/http"
	"path/filepath"
	"time"

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
	parent.POST("/cases", h.Create)
	parent.GET("/cases", h.ListForParent)
	parent.GET("/cases/:id", h.GetForParent)
	parent.PATCH("/cases/:id/cancel", h.Cancel)
	parent.POST("/cases/:id/attachments", h.AddAttachment)

	clinic.GET("/cases", h.ListForClinic)
	clinic.GET("/cases/:id", h.GetForClinic)
	clinic.POST("/cases/:id/notes", h.AddNote)
	clinic.PATCH("/cases/:id/status", h.SetStatus)
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

func (h *Handler) Create(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cs, err := h.svc.Create(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return envelope.Created(c, cs)
}

func (h *Handler) ListForParent(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var f ParentFilter
	if s := c.QueryParam("status"); s != "" {
		if f.Status, err = ParseStatus(s); err != nil {
			return err
		}
	}
	if s := c.QueryParam("childId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid childId")
		}
		f.ChildID = &id
	}
	f.ClinicID = c.QueryParam("clinicId")

	pg := pagination.FromContext(c, pagination.DefaultLimit)
	items, total, err := h.svc.ListForParent(c.Request().Context(), p, f, pg)
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
	cs, err := h.svc.GetForParent(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, cs)
}

func (h *Handler) Cancel(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.Cancel(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, cs)
}

// AddAttachment accepts a multipart upload in the "file" field.
func (h *Handler) AddAttachment(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
			contentType = byExt
		}
	}

	cs, err := h.svc.AddAttachment(c.Request().Context(), p, id, Upload{
		FileName:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return err
	}
	return envelope.Created(c, cs)
}

func (h *Handler) ListForClinic(c echo.Context) error {
	p, err := auth.CurrentPrincipal(c)
	if err != nil {
		return err
	}
	var f Filter
	if s := c.QueryParam("status"); s != "" {
		if f.Status, err = ParseStatus(s); err != nil {
			return err
		}
	}
	if s := c.QueryParam("severity"); s != "" {
		f.Severity = Severity(s)
		if !f.Severity.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid severity")
		}
	}
	if f.From, err = timeParam(c, "from"); err != nil {
		return err
	}
	if f.To, err = timeParam(c, "to"); err != nil {
		return err
	}

	pg := pagination.FromContext(c, pagination.ClinicDefaultLimit)
	items, total, err := h.svc.ListForClinic(c.Request().Context(), p, f, pg)
	if err != nil {
		return err
	}
	return envelope.List(c, items, pg, total)
}

// timeParam parses an RFC 3339 timestamp or a YYYY-MM-DD date.
func timeParam(c echo.Context, name string) (*time.Time, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
}

func (h *Handler) GetForClinic(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.GetForClinic(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return envelope.OK(c, cs)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) AddNote(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cs, err := h.svc.AddNote(c.Request().Context(), p, id, req.Note)
	if err != nil {
		return err
	}
	return envelope.OK(c, cs)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	p, id, err := principalAndID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cs, err := h.svc.SetStatus(c.Request().Context(), p, id, req.Status)
	if err != nil {
		return err
	}
	return envelope.OK(c, cs)
}
