package cases

import (
	"github.com/kindercare/kindercare/internal/platform/apperr"
	"github.com/kindercare/kindercare/internal/platform/auth"
)

type Action string

const (
	ActionCancel    Action = "cancel"
	ActionSetStatus Action = "set-status"
	ActionAddNote   Action = "add-note"
	ActionAttach    Action = "attach"
)

type rule struct {
	role auth.Role
	from []Status // nil means any status
}

var open = []Status{StatusSubmitted, StatusInReview, StatusFollowupNeeded}

var rules = map[Action]rule{
	ActionCancel:    {role: auth.RoleParent, from: open},
	ActionSetStatus: {role: auth.RoleClinic, from: open},
	ActionAddNote:   {role: auth.RoleClinic},
	ActionAttach:    {role: auth.RoleParent, from: open},
}

// settable are the statuses a clinic may assign directly.
var settable = map[Status]bool{
	StatusInReview:       true,
	StatusFollowupNeeded: true,
	StatusClosed:         true,
}

// Next returns the status a case moves to when role performs action on a
// case in current. target is only read for ActionSetStatus.
//
// Adding a note to a SUBMITTED case moves it to IN_REVIEW; notes on any other
// status leave it unchanged.
func Next(current Status, action Action, role auth.Role, target Status) (Status, error) {
	r, ok := rules[action]
	if !ok {
		return "", apperr.Validation("unknown action %q", action)
	}
	if role != r.role {
		return "", apperr.Forbidden("required role: " + string(r.role))
	}
	if action == ActionSetStatus && !settable[target] {
		return "", ErrInvalidStatus
	}
	if r.from != nil && !contains(r.from, current) {
		return "", apperr.Conflict("cannot %s a case in status %s", action, current)
	}

	switch action {
	case ActionCancel:
		return StatusCancelled, nil
	case ActionSetStatus:
		return target, nil
	case ActionAddNote:
		if current == StatusSubmitted {
			return StatusInReview, nil
		}
	}
	return current, nil
}

func contains(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
