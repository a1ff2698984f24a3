package booking

import (
	"context"
	"encoding/json"
	"log"

	"github.com/salonelite/salon-booking/internal/db"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
)

// EventRecorder is the audit sink. *db.EventStore implements it.
type EventRecorder interface {
	InsertEvent(ctx context.Context, ev db.EventLog) error
}

// LogRecorder writes events as log lines when no database is configured.
type LogRecorder struct {
	Logger *log.Logger
}

func (r LogRecorder) InsertEvent(ctx context.Context, ev db.EventLog) error {
	r.Logger.Printf("event type=%s appointment_id=%s payload=%s", ev.EventType, ev.AppointmentID, ev.Payload)
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Printf("failed to marshal event payload for %s: %v", eventType, err)
		return
	}

	ev := db.EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     s.now(),
	}
	if err := s.events.InsertEvent(ctx, ev); err != nil {
		s.logger.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
