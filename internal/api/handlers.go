package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/booking"
	"github.com/salonelite/salon-booking/internal/catalog"
	redisclient "github.com/salonelite/salon-booking/internal/redis"
)

func createAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := mustActor(r)

		var req CreateAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Book(r.Context(), actor, booking.BookingRequest{
			ClientID:    req.ClientID,
			StylistID:   req.StylistID,
			ServiceIDs:  req.ServiceIDs,
			Date:        req.Date,
			Time:        req.Time,
			Notes:       req.Notes,
			ClientName:  req.ClientName,
			ClientPhone: req.ClientPhone,
		})
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt, actor.Role))
	}
}

// listAppointmentsHandler serves the caller's role-filtered view. Role and
// user always come from the session, never from the query string.
func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := mustActor(r)
		q := r.URL.Query()

		f := appointment.Filter{
			Date:  q.Get("date"),
			Scope: appointment.Scope(q.Get("scope")),
		}
		if !f.Scope.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_scope", "scope must be upcoming or past")
			return
		}
		statuses, ok := parseStatuses(q.Get("status"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown status filter")
			return
		}
		f.Statuses = statuses

		appts := svc.Appointments(r.Context(), actor, f)
		writeJSON(w, http.StatusOK, toAppointmentList(appts, actor.Role))
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := mustActor(r)
		appt, err := svc.Get(r.Context(), actor, chi.URLParam(r, "id"))
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, actor.Role))
	}
}

func updateAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := mustActor(r)

		var req UpdateAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var patch appointment.Patch
		if req.Status != nil {
			st := appointment.Status(*req.Status)
			if !st.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown status "+*req.Status)
				return
			}
			patch.Status = &st
		}
		patch.Notes = req.Notes

		appt, err := svc.Update(r.Context(), actor, chi.URLParam(r, "id"), patch)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, actor.Role))
	}
}

func transitionHandler(svc *booking.Service, to appointment.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := mustActor(r)
		id := chi.URLParam(r, "id")

		var (
			appt *appointment.Appointment
			err  error
		)
		switch to {
		case appointment.StatusConfirmed:
			appt, err = svc.Confirm(r.Context(), actor, id)
		case appointment.StatusCompleted:
			appt, err = svc.Complete(r.Context(), actor, id)
		default:
			appt, err = svc.Cancel(r.Context(), actor, id)
		}
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt, actor.Role))
	}
}

func agendaHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := mustActor(r)
		q := r.URL.Query()

		status := appointment.Status(q.Get("status"))
		if status != "" && !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown status filter")
			return
		}

		appts, err := svc.Agenda(r.Context(), actor, q.Get("date"), status)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentList(appts, actor.Role))
	}
}

func availabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		stylistID := q.Get("stylistId")
		if stylistID == "" {
			stylistID = q.Get("stylist_id")
		}
		slots, err := svc.Availability(r.Context(), q.Get("date"), stylistID)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

func handleAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, appointment.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, catalog.ErrStylistNotFound):
		writeError(w, http.StatusNotFound, "stylist_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func parseStatuses(raw string) ([]appointment.Status, bool) {
	if raw == "" {
		return nil, true
	}
	var out []appointment.Status
	for _, part := range strings.Split(raw, ",") {
		st := appointment.Status(strings.TrimSpace(part))
		if !st.Valid() {
			return nil, false
		}
		out = append(out, st)
	}
	return out, true
}
