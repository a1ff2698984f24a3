// Package booking ties the appointment store, the catalog and the
// availability calculator together behind the operations the API exposes.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/availability"
	"github.com/salonelite/salon-booking/internal/catalog"
	redisclient "github.com/salonelite/salon-booking/internal/redis"
	"github.com/salonelite/salon-booking/internal/session"
)

var (
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// Policy switches the availability rules. The zero value is the fixed
// 09:00-18:00 grid with exact-start blocking and no conflict check.
type Policy struct {
	RespectSchedule bool
	DurationAware   bool
	RejectConflicts bool
}

type BookingRequest struct {
	ClientID    string   `json:"client_id,omitempty"`
	StylistID   string   `json:"stylist_id"`
	ServiceIDs  []string `json:"service_ids"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Notes       string   `json:"notes,omitempty"`
	ClientName  string   `json:"client_name,omitempty"`
	ClientPhone string   `json:"client_phone,omitempty"`
}

type Service struct {
	store   *appointment.Store
	catalog catalog.Catalog
	locker  Locker
	events  EventRecorder
	policy  Policy
	logger  *log.Logger
	now     func() time.Time
}

// NewService wires the booking flow. A nil locker means in-process locking,
// a nil recorder means events go to the log.
func NewService(store *appointment.Store, cat catalog.Catalog, locker Locker, events EventRecorder, policy Policy, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "[booking] ", log.LstdFlags|log.Lshortfile)
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if events == nil {
		events = LogRecorder{Logger: logger}
	}
	return &Service{
		store:   store,
		catalog: cat,
		locker:  locker,
		events:  events,
		policy:  policy,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Book records a booking intent for actor. Client details default to the
// actor's profile; price and duration always come from the catalog.
func (s *Service) Book(ctx context.Context, actor session.Actor, req BookingRequest) (*appointment.Appointment, error) {
	draft := appointment.Draft{
		ClientID:    actor.ID,
		StylistID:   strings.TrimSpace(req.StylistID),
		ServiceIDs:  req.ServiceIDs,
		Date:        strings.TrimSpace(req.Date),
		Time:        strings.TrimSpace(req.Time),
		Notes:       req.Notes,
		ClientName:  firstNonEmpty(req.ClientName, actor.Name),
		ClientPhone: firstNonEmpty(req.ClientPhone, actor.Phone),
	}
	// staff may book on behalf of a walk-in client
	if actor.Role != session.RoleClient && req.ClientID != "" {
		draft.ClientID = req.ClientID
	}

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	stylist, err := s.catalog.Stylist(ctx, draft.StylistID)
	if err != nil {
		if errors.Is(err, catalog.ErrStylistNotFound) {
			return nil, &appointment.ValidationError{Fields: []string{"stylistId"}}
		}
		return nil, fmt.Errorf("load stylist: %w", err)
	}

	quote, err := catalog.PriceServices(ctx, s.catalog, draft.ServiceIDs)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, &appointment.ValidationError{Fields: []string{"serviceIds"}}
		}
		return nil, fmt.Errorf("quote services: %w", err)
	}
	draft.ServiceIDs = quote.ServiceIDs
	draft.TotalPrice = quote.TotalPrice
	draft.Duration = quote.Duration

	var created *appointment.Appointment
	key := slotKey(draft.StylistID, draft.Date, draft.Time)

	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		if s.policy.RejectConflicts {
			opts, err := s.options(*stylist, draft.Date)
			if err != nil {
				return err
			}
			if !availability.Fits(draft.Date, draft.StylistID, draft.Time, draft.Duration, s.store.All(), opts) {
				return ErrSlotUnavailable
			}
		}

		appt, err := s.store.Create(lockCtx, draft)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"client_id":   created.ClientID,
		"stylist_id":  created.StylistID,
		"date":        created.Date,
		"time":        created.Time,
		"service_ids": created.ServiceIDs,
		"total_price": created.TotalPrice,
	})
	s.logger.Printf("appointment booked id=%s stylist=%s date=%s time=%s", created.ID, created.StylistID, created.Date, created.Time)

	return created, nil
}

func (s *Service) Confirm(ctx context.Context, actor session.Actor, id string) (*appointment.Appointment, error) {
	return s.transition(ctx, actor, id, appointment.StatusConfirmed)
}

func (s *Service) Complete(ctx context.Context, actor session.Actor, id string) (*appointment.Appointment, error) {
	return s.transition(ctx, actor, id, appointment.StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, actor session.Actor, id string) (*appointment.Appointment, error) {
	return s.transition(ctx, actor, id, appointment.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, actor session.Actor, id string, to appointment.Status) (*appointment.Appointment, error) {
	return s.Update(ctx, actor, id, appointment.Patch{Status: &to})
}

// Update applies a patch and records a status change event when the status moved.
func (s *Service) Update(ctx context.Context, actor session.Actor, id string, patch appointment.Patch) (*appointment.Appointment, error) {
	before, after, err := s.store.Apply(ctx, actor, id, patch)
	if err != nil {
		return nil, err
	}

	if after.Status != before.Status {
		s.logEvent(ctx, id, EventAppointmentStatusChanged, map[string]any{
			"from":       before.Status,
			"to":         after.Status,
			"actor_id":   actor.ID,
			"actor_role": actor.Role,
		})
		s.logger.Printf("appointment status id=%s from=%s to=%s by=%s", id, before.Status, after.Status, actor.Role)
	}
	return after, nil
}

func (s *Service) Get(ctx context.Context, actor session.Actor, id string) (*appointment.Appointment, error) {
	return s.store.Get(ctx, actor, id)
}

// Appointments is the actor's role-filtered view, narrowed by f and ordered
// by date and time.
func (s *Service) Appointments(ctx context.Context, actor session.Actor, f appointment.Filter) []appointment.Appointment {
	out := appointment.ApplyFilter(s.store.List(actor.Role, actor.ID), f)
	appointment.SortChronological(out)
	return out
}

// Agenda is a stylist's day. An empty date means today.
func (s *Service) Agenda(ctx context.Context, actor session.Actor, date string, status appointment.Status) ([]appointment.Appointment, error) {
	if actor.Role != session.RoleStylist {
		return nil, appointment.ErrForbidden
	}
	if date == "" {
		date = s.now().Format("2006-01-02")
	}
	f := appointment.Filter{Date: date}
	if status != "" {
		f.Statuses = []appointment.Status{status}
	}
	return s.Appointments(ctx, actor, f), nil
}

// Availability evaluates the current snapshot for one stylist and date.
func (s *Service) Availability(ctx context.Context, date, stylistID string) ([]availability.TimeSlot, error) {
	date = strings.TrimSpace(date)
	stylistID = strings.TrimSpace(stylistID)
	if date == "" || stylistID == "" {
		return []availability.TimeSlot{}, nil
	}

	opts := availability.DefaultOptions()
	opts.DurationAware = s.policy.DurationAware
	if s.policy.RespectSchedule {
		stylist, err := s.catalog.Stylist(ctx, stylistID)
		if err != nil {
			return nil, err
		}
		if opts, err = s.options(*stylist, date); err != nil {
			return nil, err
		}
	}

	return availability.Compute(date, stylistID, s.store.All(), opts), nil
}

func (s *Service) options(stylist catalog.Stylist, date string) (availability.Options, error) {
	opts := availability.DefaultOptions()
	opts.DurationAware = s.policy.DurationAware
	if !s.policy.RespectSchedule {
		return opts, nil
	}
	opts, err := availability.ForStylist(stylist, date, opts)
	if err != nil {
		return availability.Options{}, &appointment.ValidationError{Fields: []string{"date"}}
	}
	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
