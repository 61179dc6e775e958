package appointment

import (
	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
)

type Action string

const (
	ActionApprove      Action = "approve"
	ActionReschedule   Action = "reschedule"
	ActionClinicCancel Action = "clinic-cancel"
	ActionParentCancel Action = "cancel"
	ActionComplete     Action = "complete"
)

type rule struct {
	role auth.Role
	from []Status // nil means any status
	to   Status
}

var active = []Status{StatusRequested, StatusConfirmed, StatusRescheduled}

// Clinics may cancel from any status, including COMPLETED.
var rules = map[Action]rule{
	ActionApprove:      {role: auth.RoleClinic, from: active, to: StatusConfirmed},
	ActionReschedule:   {role: auth.RoleClinic, from: active, to: StatusRescheduled},
	ActionClinicCancel: {role: auth.RoleClinic, to: StatusCancelled},
	ActionParentCancel: {role: auth.RoleParent, from: active, to: StatusCancelled},
	ActionComplete:     {role: auth.RoleClinic, from: []Status{StatusConfirmed, StatusRescheduled}, to: StatusCompleted},
}

// Next returns the status an appointment in current moves to when role
// performs action.
func Next(current Status, action Action, role auth.Role) (Status, error) {
	r, ok := rules[action]
	if !ok {
		return "", apperr.Validation("unknown action %q", action)
	}
	if role != r.role {
		return "", apperr.Forbidden("required role: " + string(r.role))
	}
	if r.from != nil {
		allowed := false
		for _, s := range r.from {
			if s == current {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", apperr.Conflict("cannot %s an appointment in status %s", action, current)
		}
	}
	return r.to, nil
}
