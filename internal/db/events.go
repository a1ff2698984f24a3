package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID string
	Payload       json.RawMessage
	CreatedAt     time.Time
}

type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

func (s *EventStore) InsertEvent(ctx context.Context, ev EventLog) error {
	var appID *string
	if ev.AppointmentID != "" {
		appID = &ev.AppointmentID
	}
	payload := ev.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3::jsonb, COALESCE($4, now()))
	`, ev.EventType, appID, string(payload), nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

// EventsFor returns the audit trail of one appointment, oldest first.
func (s *EventStore) EventsFor(ctx context.Context, appointmentID string) ([]EventLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, COALESCE(appointment_id, ''), payload::text, created_at
		FROM event_logs
		WHERE appointment_id = $1
		ORDER BY created_at, id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EventLog
	for rows.Next() {
		var ev EventLog
		var payload string
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.AppointmentID, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Payload = json.RawMessage(payload)
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
