// Package availability computes which slots of a stylist's day are free.
// Everything here is pure: callers pass the appointment snapshot they want
// evaluated and get a fresh slot list back.
package availability

import (
	"fmt"
	"time"

	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/catalog"
)

const (
	DefaultOpen  = 9 * 60  // 09:00
	DefaultClose = 18 * 60 // 18:00, exclusive
)

type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	StylistID string `json:"stylistId"`
}

// Options controls grid generation. The zero SlotSize means GridMinutes.
type Options struct {
	Start         int // minutes after midnight, inclusive
	End           int // minutes after midnight, exclusive
	Closed        bool
	SlotSize      int
	DurationAware bool
}

// DefaultOptions is the salon-wide 09:00-18:00 grid with exact-start blocking.
func DefaultOptions() Options {
	return Options{
		Start:    DefaultOpen,
		End:      DefaultClose,
		SlotSize: appointment.GridMinutes,
	}
}

// ComputeSlots returns the fixed 18-slot grid for date, marking a slot
// unavailable when a non-cancelled appointment for the same stylist starts
// exactly there.
func ComputeSlots(date, stylistID string, appts []appointment.Appointment) []TimeSlot {
	return Compute(date, stylistID, appts, DefaultOptions())
}

// Compute is ComputeSlots with an explicit policy. Empty date or stylist
// yields an empty list.
func Compute(date, stylistID string, appts []appointment.Appointment, opts Options) []TimeSlot {
	slots := make([]TimeSlot, 0)
	if date == "" || stylistID == "" || opts.Closed {
		return slots
	}
	size := opts.SlotSize
	if size <= 0 {
		size = appointment.GridMinutes
	}

	booked := bookedRanges(date, stylistID, appts, size, opts.DurationAware)
	for t := opts.Start; t < opts.End; t += size {
		slots = append(slots, TimeSlot{
			Time:      catalog.FormatClock(t),
			Available: !blocked(booked, t, size, opts.DurationAware),
			StylistID: stylistID,
		})
	}
	return slots
}

// Fits reports whether a booking of duration minutes at clock can be placed.
// In exact-start mode only the start slot matters; in duration-aware mode
// every slot the booking spans must be on the grid and free.
func Fits(date, stylistID, clock string, duration int, appts []appointment.Appointment, opts Options) bool {
	slots := Compute(date, stylistID, appts, opts)
	start, err := catalog.ClockMinutes(clock)
	if err != nil {
		return false
	}

	size := opts.SlotSize
	if size <= 0 {
		size = appointment.GridMinutes
	}
	need := 1
	if opts.DurationAware && duration > 0 {
		need = (duration + size - 1) / size
	}

	free := make(map[string]bool, len(slots))
	for _, s := range slots {
		free[s.Time] = s.Available
	}
	for k := 0; k < need; k++ {
		if !free[catalog.FormatClock(start+k*size)] {
			return false
		}
	}
	return true
}

// ForStylist narrows base to the stylist's working window on date's weekday,
// rounded inward to slot boundaries. A day without a schedule entry, or
// marked not working, is closed.
func ForStylist(stylist catalog.Stylist, date string, base Options) (Options, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Options{}, fmt.Errorf("parse date %q: %w", date, err)
	}

	opts := base
	sched, ok := stylist.Schedule.ScheduleFor(day)
	if !ok || !sched.IsWorking {
		opts.Closed = true
		return opts, nil
	}
	start, end, err := sched.Bounds()
	if err != nil {
		return Options{}, fmt.Errorf("stylist %s: %w", stylist.ID, err)
	}
	// Bookable times must sit on the grid, so an off-grid window shrinks
	// to the slot boundaries inside it.
	size := opts.SlotSize
	if size <= 0 {
		size = appointment.GridMinutes
	}
	start = (start + size - 1) / size * size
	end = end / size * size
	if end <= start {
		opts.Closed = true
		return opts, nil
	}
	opts.Start, opts.End = start, end
	return opts, nil
}

type span struct{ start, end int }

func bookedRanges(date, stylistID string, appts []appointment.Appointment, size int, durationAware bool) []span {
	var out []span
	for _, a := range appts {
		if a.Date != date || a.StylistID != stylistID || a.Status == appointment.StatusCancelled {
			continue
		}
		start, err := catalog.ClockMinutes(a.Time)
		if err != nil {
			continue
		}
		end := start + size
		if durationAware && a.Duration > 0 {
			end = start + a.Duration
		}
		out = append(out, span{start, end})
	}
	return out
}

// blocked matches bookings by exact start time unless durationAware, in
// which case any overlap with the slot counts.
func blocked(booked []span, slot, size int, durationAware bool) bool {
	for _, b := range booked {
		if !durationAware {
			if b.start == slot {
				return true
			}
			continue
		}
		if b.start < slot+size && slot < b.end {
			return true
		}
	}
	return false
}
