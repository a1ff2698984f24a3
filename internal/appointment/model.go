package appointment

import (
	"sort"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// GridMinutes is the size of one bookable slot.
const GridMinutes = 30

// Appointment is persisted as-is in the snapshot slot, hence the camelCase tags.
// Only Status and Notes change after creation.
type Appointment struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	StylistID   string    `json:"stylistId"`
	ServiceIDs  []string  `json:"serviceIds"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	TotalPrice  int64     `json:"totalPrice"`
	Duration    int       `json:"duration"`
	ClientName  string    `json:"clientName,omitempty"`
	ClientPhone string    `json:"clientPhone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (a Appointment) clone() Appointment {
	if a.ServiceIDs != nil {
		a.ServiceIDs = append([]string(nil), a.ServiceIDs...)
	}
	return a
}

// Draft is what a caller submits to create an appointment. TotalPrice and
// Duration are computed by the caller from current catalog prices.
type Draft struct {
	ClientID    string
	StylistID   string
	ServiceIDs  []string
	Date        string
	Time        string
	Notes       string
	TotalPrice  int64
	Duration    int
	ClientName  string
	ClientPhone string
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Status *Status
	Notes  *string
}

type Scope string

const (
	ScopeAll      Scope = ""
	ScopeUpcoming Scope = "upcoming"
	ScopePast     Scope = "past"
)

func (s Scope) Valid() bool {
	return s == ScopeAll || s == ScopeUpcoming || s == ScopePast
}

// Filter narrows an already role-filtered view.
type Filter struct {
	Date     string
	Statuses []Status
	Scope    Scope
}

func (f Filter) Match(a Appointment) bool {
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch f.Scope {
	case ScopeUpcoming:
		return !a.Status.Terminal()
	case ScopePast:
		return a.Status.Terminal()
	}
	return true
}

func ApplyFilter(appts []Appointment, f Filter) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// SortChronological orders by date then time, keeping insertion order for ties.
func SortChronological(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].Date != appts[j].Date {
			return appts[i].Date < appts[j].Date
		}
		return appts[i].Time < appts[j].Time
	})
}
