package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kindercare/kindercare/internal/domain/cases"
	"github.com/kindercare/kindercare/internal/domain/child"
	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
	"github.com/kindercare/kindercare/pkg/pagination"
)

type mockRepo struct {
	items map[uuid.UUID]*Appointment
	race  Status
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Search(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.items {
		if f.ParentID != nil && a.ParentID != *f.ParentID {
			continue
		}
		if f.ClinicID != "" && a.ClinicID != f.ClinicID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		result = append(result, a)
	}
	return result, len(result), nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment, from Status) error {
	stored, ok := m.items[a.ID]
	if !ok {
		return ErrNotFound
	}
	if m.race != "" {
		stored.Status = m.race
		m.race = ""
	}
	if stored.Status != from {
		return ErrStale
	}
	a.UpdatedAt = time.Now()
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

type stubChildren map[uuid.UUID]*child.Child

func (s stubChildren) Get(_ context.Context, p auth.Principal, id uuid.UUID) (*child.Child, error) {
	c, ok := s[id]
	if !ok || c.ParentID != p.UserID {
		return nil, child.ErrNotFound
	}
	return c, nil
}

type stubCases map[uuid.UUID]*cases.Case

func (s stubCases) GetForParent(_ context.Context, p auth.Principal, id uuid.UUID) (*cases.Case, error) {
	c, ok := s[id]
	if !ok || c.ParentID != p.UserID {
		return nil, cases.ErrNotFound
	}
	return c, nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	parent  auth.Principal
	clinic  auth.Principal
	kid     *child.Child
	sibling *child.Child
	kase    *cases.Case
}

func newFixture() *fixture {
	f := &fixture{
		repo:   newMockRepo(),
		parent: auth.Principal{UserID: uuid.New(), Role: auth.RoleParent},
		clinic: auth.Principal{UserID: uuid.New(), Role: auth.RoleClinic, ClinicID: "clinic-1"},
	}
	f.kid = &child.Child{ID: uuid.New(), ParentID: f.parent.UserID, Name: "Mia", AgeMonths: 40}
	f.sibling = &child.Child{ID: uuid.New(), ParentID: f.parent.UserID, Name: "Leo", AgeMonths: 10}
	f.kase = &cases.Case{ID: uuid.New(), ParentID: f.parent.UserID, ChildID: f.kid.ID, ClinicID: "clinic-1"}
	f.svc = NewService(f.repo,
		stubChildren{f.kid.ID: f.kid, f.sibling.ID: f.sibling},
		stubCases{f.kase.ID: f.kase})
	return f
}

func slot(hours int) time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(hours) * time.Hour)
}

func (f *fixture) request(t *testing.T) *Appointment {
	t.Helper()
	a, err := f.svc.Request(context.Background(), f.parent, CreateInput{
		ChildID: f.kid.ID, ClinicID: "clinic-1", CaseID: &f.kase.ID, PreferredSlots: []time.Time{slot(0), slot(24)},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return a
}

func TestService_Request(t *testing.T) {
	f := newFixture()
	a := f.request(t)
	if a.Status != StatusRequested || a.ParentID != f.parent.UserID || len(a.PreferredSlots) != 2 {
		t.Errorf("unexpected appointment %+v", a)
	}
	if a.ConfirmedSlot != nil {
		t.Error("new requests have no confirmed slot")
	}
}

func TestService_Request_Errors(t *testing.T) {
	f := newFixture()
	other := uuid.New()
	tests := []struct {
		name string
		p    auth.Principal
		in   CreateInput
		want error
		kind apperr.Kind
	}{
		{"no slots", f.parent, CreateInput{ChildID: f.kid.ID, ClinicID: "clinic-1"}, nil, apperr.KindValidation},
		{"zero slot", f.parent, CreateInput{ChildID: f.kid.ID, ClinicID: "clinic-1", PreferredSlots: []time.Time{{}}}, nil, apperr.KindValidation},
		{"no clinic", f.parent, CreateInput{ChildID: f.kid.ID, PreferredSlots: []time.Time{slot(1)}}, nil, apperr.KindValidation},
		{"foreign child", auth.Principal{UserID: uuid.New(), Role: auth.RoleParent},
			CreateInput{ChildID: f.kid.ID, ClinicID: "clinic-1", PreferredSlots: []time.Time{slot(1)}}, ErrChildAccess, 0},
		{"case of a different child", f.parent,
			CreateInput{ChildID: f.sibling.ID, ClinicID: "clinic-1", CaseID: &f.kase.ID, PreferredSlots: []time.Time{slot(1)}}, ErrCaseAccess, 0},
		{"unknown case", f.parent,
			CreateInput{ChildID: f.kid.ID, ClinicID: "clinic-1", CaseID: &other, PreferredSlots: []time.Time{slot(1)}}, ErrCaseAccess, 0},
		{"clinic caller", f.clinic,
			CreateInput{ChildID: f.kid.ID, ClinicID: "clinic-1", PreferredSlots: []time.Time{slot(1)}}, nil, apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Request(context.Background(), tt.p, tt.in)
			if tt.want != nil {
				if err != tt.want {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				return
			}
			if !apperr.IsKind(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
	if len(f.repo.items) != 0 {
		t.Errorf("no appointment should be stored, got %d", len(f.repo.items))
	}
}

func TestService_Request_ClinicIDWidth(t *testing.T) {
	f := newFixture()
	in := CreateInput{ChildID: f.kid.ID, PreferredSlots: []time.Time{slot(1)}}

	in.ClinicID = strings.Repeat("c", 64)
	if _, err := f.svc.Request(context.Background(), f.parent, in); err != nil {
		t.Fatalf("64-character clinic id: unexpected error %v", err)
	}

	in.ClinicID = strings.Repeat("c", 65)
	_, err := f.svc.Request(context.Background(), f.parent, in)
	if !apperr.IsKind(err, apperr.KindValidation) || !strings.HasPrefix(err.Error(), "clinicId:") {
		t.Errorf("expected clinicId validation error, got %v", err)
	}
}

func TestService_ApproveRescheduleComplete(t *testing.T) {
	f := newFixture()
	a := f.request(t)
	ctx := context.Background()
	confirmed := slot(2)
	msg := "See you then"

	if _, err := f.svc.Complete(ctx, f.clinic, a.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("complete from REQUESTED: expected conflict, got %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.clinic, a.ID, Decision{ClinicMessage: &msg}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("approve without slot: expected validation error, got %v", err)
	}

	got, err := f.svc.Approve(ctx, f.clinic, a.ID, Decision{ConfirmedSlot: &confirmed, ClinicMessage: &msg})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != StatusConfirmed || !got.ConfirmedSlot.Equal(confirmed) || *got.ClinicMessage != msg {
		t.Errorf("unexpected appointment after approve %+v", got)
	}

	later := slot(48)
	got, err = f.svc.Reschedule(ctx, f.clinic, a.ID, Decision{ConfirmedSlot: &later})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if got.Status != StatusRescheduled || !got.ConfirmedSlot.Equal(later) || *got.ClinicMessage != msg {
		t.Errorf("unexpected appointment after reschedule %+v", got)
	}

	got, err = f.svc.Complete(ctx, f.clinic, a.ID)
	if err != nil || got.Status != StatusCompleted {
		t.Fatalf("complete = %v, %v", got, err)
	}

	if _, err := f.svc.CancelByParent(ctx, f.parent, a.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("parent cancel of completed: expected conflict, got %v", err)
	}
}

func TestService_CancelByClinic_FromCompleted(t *testing.T) {
	f := newFixture()
	a := f.request(t)
	ctx := context.Background()
	confirmed := slot(2)
	f.svc.Approve(ctx, f.clinic, a.ID, Decision{ConfirmedSlot: &confirmed})
	f.svc.Complete(ctx, f.clinic, a.ID)

	msg := "Clinic closed"
	got, err := f.svc.CancelByClinic(ctx, f.clinic, a.ID, &msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled || got.ConfirmedSlot == nil || *got.ClinicMessage != msg {
		t.Errorf("unexpected appointment %+v", got)
	}
}

func TestService_Visibility(t *testing.T) {
	f := newFixture()
	a := f.request(t)
	ctx := context.Background()
	otherClinic := auth.Principal{UserID: uuid.New(), Role: auth.RoleClinic, ClinicID: "clinic-2"}
	otherParent := auth.Principal{UserID: uuid.New(), Role: auth.RoleParent}
	confirmed := slot(1)

	if _, err := f.svc.Approve(ctx, otherClinic, a.ID, Decision{ConfirmedSlot: &confirmed}); err != ErrNotFound {
		t.Errorf("foreign clinic approve: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.CancelByParent(ctx, otherParent, a.ID); err != ErrNotFound {
		t.Errorf("foreign parent cancel: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.GetForClinic(ctx, f.clinic, a.ID); err != nil {
		t.Errorf("target clinic should see the appointment: %v", err)
	}
}

func TestService_CancelByParent_LostRace(t *testing.T) {
	f := newFixture()
	a := f.request(t)
	f.repo.race = StatusConfirmed

	if _, err := f.svc.CancelByParent(context.Background(), f.parent, a.ID); err != ErrStale {
		t.Errorf("expected ErrStale, got %v", err)
	}
	if f.repo.items[a.ID].Status != StatusConfirmed {
		t.Errorf("the winning write must stand, got %s", f.repo.items[a.ID].Status)
	}
}

func TestService_Lists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.request(t)
	f.svc.Request(ctx, f.parent, CreateInput{ChildID: f.sibling.ID, ClinicID: "clinic-2", PreferredSlots: []time.Time{slot(3)}})

	_, total, err := f.svc.ListForParent(ctx, f.parent, "", pagination.New(1, 10, 10))
	if err != nil || total != 2 {
		t.Errorf("parent list total = %d, %v", total, err)
	}
	items, total, err := f.svc.ListForClinic(ctx, f.clinic, StatusRequested, pagination.New(1, 20, 20))
	if err != nil || total != 1 || items[0].ClinicID != "clinic-1" {
		t.Errorf("clinic list = %v, %d, %v", items, total, err)
	}
}
