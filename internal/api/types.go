package api

import (
	"time"

	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/session"
)

type CreateAppointmentRequest struct {
	ClientID    string   `json:"client_id,omitempty"`
	StylistID   string   `json:"stylist_id"`
	ServiceIDs  []string `json:"service_ids"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Notes       string   `json:"notes,omitempty"`
	ClientName  string   `json:"client_name,omitempty"`
	ClientPhone string   `json:"client_phone,omitempty"`
}

type UpdateAppointmentRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	StylistID   string    `json:"stylist_id"`
	ServiceIDs  []string  `json:"service_ids"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	TotalPrice  int64     `json:"total_price"`
	Duration    int       `json:"duration"`
	ClientName  string    `json:"client_name,omitempty"`
	ClientPhone string    `json:"client_phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// Actions lists the statuses the caller may move this appointment to.
	Actions []string `json:"actions"`
}

func toAppointmentResponse(a appointment.Appointment, role session.Role) AppointmentResponse {
	actions := make([]string, 0)
	for _, s := range appointment.NextStatuses(a.Status, role) {
		actions = append(actions, string(s))
	}
	return AppointmentResponse{
		ID:          a.ID,
		ClientID:    a.ClientID,
		StylistID:   a.StylistID,
		ServiceIDs:  a.ServiceIDs,
		Date:        a.Date,
		Time:        a.Time,
		Status:      string(a.Status),
		Notes:       a.Notes,
		TotalPrice:  a.TotalPrice,
		Duration:    a.Duration,
		ClientName:  a.ClientName,
		ClientPhone: a.ClientPhone,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Actions:     actions,
	}
}

func toAppointmentList(appts []appointment.Appointment, role session.Role) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a, role))
	}
	return out
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type GuestRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type SessionResponse struct {
	Token string        `json:"token"`
	User  session.Actor `json:"user"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
