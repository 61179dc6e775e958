package cases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kindercare/kindercare/internal/domain/child"
	"github.com/kindercare/kindercare/internal/domain/triage"
	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
	"github.com/kindercare/kindercare/internal/platform/blobstore"
	"github.com/kindercare/kindercare/pkg/pagination"
)

// ChildFinder resolves a child owned by the caller.
type ChildFinder interface {
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*child.Child, error)
}

// TxRunner runs fn in a single database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Upload is a file attached to a case by the parent.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	repo     Repository
	children ChildFinder
	blobs    blobstore.Store
	tx       TxRunner
}

func NewService(repo Repository, children ChildFinder, blobs blobstore.Store, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, children: children, blobs: blobs, tx: tx}
}

// Create submits a case for a child the parent owns and stores the triage
// assessment alongside it.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*Case, error) {
	if p.Role != auth.RoleParent {
		return nil, apperr.Forbidden("only parents can submit cases")
	}
	c, err := buildCase(p, in)
	if err != nil {
		return nil, err
	}

	kid, err := s.children.Get(ctx, p, c.ChildID)
	if child.IsNotFound(err) {
		return nil, ErrChildAccess
	}
	if err != nil {
		return nil, err
	}

	a := triage.Assess(triage.Input{
		AgeYears: triage.AgeYears(kid.AgeMonths),
		Severity: triage.SeverityLabel(string(c.Severity)),
		Duration: c.Duration,
		Symptoms: strings.Join(c.Symptoms, ", "),
	})
	c.Triage = Triage{Verdict: a.Verdict, RedFlags: a.RedFlags, Summary: a.Summary}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("case_id", c.ID.String()).
		Str("clinic_id", c.ClinicID).
		Str("verdict", c.Triage.Verdict).
		Msg("case submitted")
	c.Notes = []Note{}
	return c, nil
}

// Column widths of symptom_case.
const (
	maxClinicIDLen = 64
	maxDurationLen = 200
)

func buildCase(p auth.Principal, in CreateInput) (*Case, error) {
	if in.ChildID == uuid.Nil {
		return nil, apperr.Validation("childId is required")
	}
	clinicID := strings.TrimSpace(in.ClinicID)
	if clinicID == "" {
		return nil, apperr.Validation("clinicId is required")
	}
	if utf8.RuneCountInString(clinicID) > maxClinicIDLen {
		return nil, apperr.Field("clinicId", fmt.Sprintf("must be at most %d characters", maxClinicIDLen))
	}

	symptoms := make([]string, 0, len(in.Symptoms))
	for _, sym := range in.Symptoms {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			return nil, apperr.Field("symptoms", "must not contain empty entries")
		}
		symptoms = append(symptoms, sym)
	}
	if len(symptoms) == 0 {
		return nil, apperr.Field("symptoms", "at least one symptom is required")
	}
	if !in.Severity.Valid() {
		return nil, apperr.Field("severity", "must be one of mild, moderate, severe")
	}
	duration := strings.TrimSpace(in.Duration)
	if duration == "" {
		return nil, apperr.Field("duration", "is required")
	}
	if utf8.RuneCountInString(duration) > maxDurationLen {
		return nil, apperr.Field("duration", fmt.Sprintf("must be at most %d characters", maxDurationLen))
	}
	inputType := in.InputType
	if inputType == "" {
		inputType = InputText
	}
	if !inputType.Valid() {
		return nil, apperr.Field("inputType", "must be one of text, voice, image, mixed")
	}

	attachments := make([]Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		if !a.Type.Valid() || strings.TrimSpace(a.URL) == "" {
			return nil, apperr.Field("attachments", "each attachment needs a type of image or audio and a url")
		}
		attachments = append(attachments, Attachment{Type: a.Type, URL: strings.TrimSpace(a.URL)})
	}

	return &Case{
		ParentID:    p.UserID,
		ChildID:     in.ChildID,
		ClinicID:    clinicID,
		Symptoms:    symptoms,
		Severity:    in.Severity,
		Duration:    duration,
		InputType:   inputType,
		Attachments: attachments,
		Status:      StatusSubmitted,
	}, nil
}

// forParent loads a case the parent owns. Foreign and missing cases both
// report ErrNotFound.
func (s *Service) forParent(ctx context.Context, p auth.Principal, id uuid.UUID) (*Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireParent(p, c.ParentID); err != nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) forClinic(ctx context.Context, p auth.Principal, id uuid.UUID) (*Case, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireClinic(p, c.ClinicID); err != nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// ParentFilter holds the list filters available to parents.
type ParentFilter struct {
	Status   Status
	ChildID  *uuid.UUID
	ClinicID string
}

func (s *Service) ListForParent(ctx context.Context, p auth.Principal, f ParentFilter, pg pagination.Params) ([]*Case, int, error) {
	if p.Role != auth.RoleParent {
		return nil, 0, apperr.Forbidden("required role: PARENT")
	}
	return s.repo.Search(ctx, Filter{
		ParentID: &p.UserID,
		ChildID:  f.ChildID,
		ClinicID: f.ClinicID,
		Status:   f.Status,
	}, pg.Limit, pg.Offset)
}

// ListForClinic returns the clinic's cases. Only Status, Severity, From and To
// of f are honoured; the clinic id always comes from p.
func (s *Service) ListForClinic(ctx context.Context, p auth.Principal, f Filter, pg pagination.Params) ([]*Case, int, error) {
	if p.Role != auth.RoleClinic || p.ClinicID == "" {
		return nil, 0, apperr.Forbidden("clinic account required")
	}
	return s.repo.Search(ctx, Filter{
		ClinicID: p.ClinicID,
		Status:   f.Status,
		Severity: f.Severity,
		From:     f.From,
		To:       f.To,
	}, pg.Limit, pg.Offset)
}

func (s *Service) GetForParent(ctx context.Context, p auth.Principal, id uuid.UUID) (*Case, error) {
	return s.forParent(ctx, p, id)
}

func (s *Service) GetForClinic(ctx context.Context, p auth.Principal, id uuid.UUID) (*Case, error) {
	return s.forClinic(ctx, p, id)
}

// Cancel withdraws an open case.
func (s *Service) Cancel(ctx context.Context, p auth.Principal, id uuid.UUID) (*Case, error) {
	c, err := s.forParent(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, c, ActionCancel, p.Role, "")
}

// SetStatus assigns IN_REVIEW, FOLLOWUP_NEEDED or CLOSED to an open case.
func (s *Service) SetStatus(ctx context.Context, p auth.Principal, id uuid.UUID, target Status) (*Case, error) {
	c, err := s.forClinic(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, c, ActionSetStatus, p.Role, target)
}

func (s *Service) move(ctx context.Context, c *Case, action Action, role auth.Role, target Status) (*Case, error) {
	next, err := Next(c.Status, action, role, target)
	if err != nil {
		return nil, err
	}
	updatedAt, err := s.repo.UpdateStatus(ctx, c.ID, c.Status, next)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("case_id", c.ID.String()).
		Str("from", string(c.Status)).
		Str("to", string(next)).
		Msg("case status changed")
	c.Status = next
	c.UpdatedAt = updatedAt
	return c, nil
}

// AddNote appends a clinic note. A note on a SUBMITTED case also moves it to
// IN_REVIEW in the same transaction; if another writer already moved the
// case on, the note is kept and the status is left alone.
func (s *Service) AddNote(ctx context.Context, p auth.Principal, id uuid.UUID, text string) (*Case, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("note is required")
	}
	c, err := s.forClinic(ctx, p, id)
	if err != nil {
		return nil, err
	}
	next, err := Next(c.Status, ActionAddNote, p.Role, "")
	if err != nil {
		return nil, err
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.AddNote(ctx, &Note{CaseID: c.ID, AuthorID: p.UserID, Text: text}); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		if next == c.Status {
			return nil
		}
		if _, err := s.repo.UpdateStatus(ctx, c.ID, c.Status, next); err != nil && !errors.Is(err, ErrStale) {
			return fmt.Errorf("advance status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, c.ID)
}

// AddAttachment stores an uploaded file and appends it to an open case. The
// attachment type is derived from the MIME type.
func (s *Service) AddAttachment(ctx context.Context, p auth.Principal, id uuid.UUID, up Upload) (*Case, error) {
	c, err := s.forParent(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if _, err := Next(c.Status, ActionAttach, p.Role, ""); err != nil {
		return nil, err
	}
	kind, ok := AttachmentTypeFor(up.ContentType)
	if !ok {
		return nil, apperr.Field("file", "must be an image or audio file")
	}

	obj, err := s.blobs.Put(ctx, blobstore.ObjectKey(c.ID, up.FileName), up.ContentType, up.Body, up.Size)
	if errors.Is(err, blobstore.ErrEmptyObject) {
		return nil, apperr.Field("file", "is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	a := Attachment{Type: kind, URL: obj.URL}
	if err := s.repo.AppendAttachment(ctx, c.ID, c.Status, a); err != nil {
		_ = s.blobs.Delete(ctx, obj.Key)
		return nil, err
	}
	return s.repo.GetByID(ctx, c.ID)
}

// AttachmentTypeFor maps a MIME type to an attachment type.
func AttachmentTypeFor(contentType string) (AttachmentType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return AttachmentImage, true
	case strings.HasPrefix(ct, "audio/"):
		return AttachmentAudio, true
	}
	return "", false
}
