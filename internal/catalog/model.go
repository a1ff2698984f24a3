package catalog

import (
	"fmt"
	"strings"
	"time"
)

type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    int    `json:"duration"` // minutes
	Price       int64  `json:"price"`    // integer currency units
	Category    string `json:"category"`
	Icon        string `json:"icon"`
}

type Stylist struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Specialties []string     `json:"specialties"`
	Rating      float64      `json:"rating"`
	Experience  string       `json:"experience"`
	Schedule    WorkingHours `json:"schedule"`
}

// DaySchedule is one weekday of a stylist's roster. Start and End are HH:MM.
type DaySchedule struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	IsWorking bool   `json:"isWorking"`
}

// WorkingHours maps lower-case weekday names ("monday") to that day's schedule.
type WorkingHours map[string]DaySchedule

func (w WorkingHours) ScheduleFor(day time.Time) (DaySchedule, bool) {
	d, ok := w[strings.ToLower(day.Weekday().String())]
	return d, ok
}

// Bounds returns the working window in minutes after midnight.
func (d DaySchedule) Bounds() (start, end int, err error) {
	start, err = ClockMinutes(d.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule start: %w", err)
	}
	end, err = ClockMinutes(d.End)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule end: %w", err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("schedule end %s is not after start %s", d.End, d.Start)
	}
	return start, end, nil
}

// ClockMinutes parses an HH:MM wall-clock string into minutes after midnight.
func ClockMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (s Stylist) validate() error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: stylist id and name are required", ErrInvalidEntry)
	}
	for day, sched := range s.Schedule {
		if !isWeekday(day) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidEntry, day)
		}
		if !sched.IsWorking {
			continue
		}
		if _, _, err := sched.Bounds(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidEntry, day, err)
		}
	}
	return nil
}

func (s Service) validate() error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: service id and name are required", ErrInvalidEntry)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%w: service duration must be positive", ErrInvalidEntry)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: service price must not be negative", ErrInvalidEntry)
	}
	return nil
}

func isWeekday(day string) bool {
	for _, d := range weekdays {
		if d == day {
			return true
		}
	}
	return false
}
