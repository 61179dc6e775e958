package cases

import (
	"time"

	"github.com/google/uuid"

	"github.com/kindercare/kindercare/internal/platform/apperr"
)

type Status string

const (
	StatusSubmitted      Status = "SUBMITTED"
	StatusInReview       Status = "IN_REVIEW"
	StatusFollowupNeeded Status = "FOLLOWUP_NEEDED"
	StatusClosed         Status = "CLOSED"
	StatusCancelled      Status = "CANCELLED"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSubmitted, StatusInReview, StatusFollowupNeeded, StatusClosed, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

func (s Severity) Valid() bool {
	return s == SeverityMild || s == SeverityModerate || s == SeveritySevere
}

type InputType string

const (
	InputText  InputType = "text"
	InputVoice InputType = "voice"
	InputImage InputType = "image"
	InputMixed InputType = "mixed"
)

func (t InputType) Valid() bool {
	switch t {
	case InputText, InputVoice, InputImage, InputMixed:
		return true
	}
	return false
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentAudio AttachmentType = "audio"
)

func (t AttachmentType) Valid() bool {
	return t == AttachmentImage || t == AttachmentAudio
}

type Attachment struct {
	Type AttachmentType `json:"type"`
	URL  string         `json:"url"`
}

// Note is a clinic remark. Notes are append-only.
type Note struct {
	ID        int64     `json:"id"`
	CaseID    uuid.UUID `json:"caseId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Triage is the classification computed when the case was submitted.
type Triage struct {
	Verdict  string   `json:"verdict"`
	RedFlags []string `json:"redFlags"`
	Summary  string   `json:"summary"`
}

// Case is a parent's symptom report addressed to one clinic.
type Case struct {
	ID          uuid.UUID    `json:"id"`
	ParentID    uuid.UUID    `json:"parentId"`
	ChildID     uuid.UUID    `json:"childId"`
	ClinicID    string       `json:"clinicId"`
	Symptoms    []string     `json:"symptoms"`
	Severity    Severity     `json:"severity"`
	Duration    string       `json:"duration"`
	InputType   InputType    `json:"inputType"`
	Attachments []Attachment `json:"attachments"`
	Notes       []Note       `json:"clinicNotes"`
	Status      Status       `json:"status"`
	Triage      Triage       `json:"triage"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Filter narrows a case search. Zero fields are ignored.
type Filter struct {
	ParentID *uuid.UUID
	ChildID  *uuid.UUID
	ClinicID string
	Status   Status
	Severity Severity
	From     *time.Time
	To       *time.Time
}

type CreateInput struct {
	ChildID     uuid.UUID    `json:"childId"`
	ClinicID    string       `json:"clinicId"`
	Symptoms    []string     `json:"symptoms"`
	Severity    Severity     `json:"severity"`
	Duration    string       `json:"duration"`
	InputType   InputType    `json:"inputType"`
	Attachments []Attachment `json:"attachments"`
}

var (
	ErrNotFound      = apperr.NotFound("Case not found")
	ErrInvalidStatus = apperr.Validation("Invalid status")
	ErrChildAccess   = apperr.Forbidden("Invalid child access")
	// ErrStale means another writer changed the status between load and update.
	ErrStale = apperr.Conflict("Case was modified concurrently")
)
