package appointment

import "github.com/salonelite/salon-booking/internal/session"

type transition struct {
	from Status
	to   Status
}

// transitionRoles is the full status graph. Anything absent is rejected,
// which covers every move out of completed and cancelled.
var transitionRoles = map[transition][]session.Role{
	{StatusPending, StatusConfirmed}:   {session.RoleStylist, session.RoleAdmin},
	{StatusPending, StatusCancelled}:   {session.RoleClient, session.RoleStylist, session.RoleAdmin},
	{StatusConfirmed, StatusCompleted}: {session.RoleStylist, session.RoleAdmin},
	{StatusConfirmed, StatusCancelled}: {session.RoleStylist, session.RoleAdmin},
}

func CanTransition(from, to Status, role session.Role) bool {
	for _, r := range transitionRoles[transition{from, to}] {
		if r == role {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses role may move an appointment to from current.
func NextStatuses(current Status, role session.Role) []Status {
	var out []Status
	for _, to := range []Status{StatusConfirmed, StatusCompleted, StatusCancelled} {
		if CanTransition(current, to, role) {
			out = append(out, to)
		}
	}
	return out
}

func checkTransition(from, to Status, role session.Role) error {
	if !to.Valid() || !CanTransition(from, to, role) {
		return &TransitionError{From: from, To: to, Role: role}
	}
	return nil
}

// checkRepeat guards a request for the status the appointment already has.
// It is a no-op only for a role that could have moved it there.
func checkRepeat(current Status, role session.Role) error {
	for t, roles := range transitionRoles {
		if t.to != current {
			continue
		}
		for _, r := range roles {
			if r == role {
				return nil
			}
		}
	}
	return &TransitionError{From: current, To: current, Role: role}
}

// Visible reports whether actor may see (and so act on) the appointment.
func Visible(actor session.Actor, a Appointment) bool {
	switch actor.Role {
	case session.RoleAdmin:
		return true
	case session.RoleStylist:
		return a.StylistID == actor.ID
	case session.RoleClient:
		return a.ClientID == actor.ID
	}
	return false
}
