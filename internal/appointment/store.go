package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salonelite/salon-booking/internal/session"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	maxIDAttempts = 8
)

// Store is the single authority over appointment records. Every mutation
// replaces the whole persisted snapshot; readers always see the
// post-mutation state.
type Store struct {
	mu           sync.RWMutex
	appointments []Appointment
	index        map[string]int

	snap      Snapshotter
	persister *persister
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithWriteBehind moves snapshot saves onto a background goroutine started
// by RunPersister. Without it every mutation saves synchronously.
func WithWriteBehind() Option {
	return func(s *Store) { s.persister = newPersister(nil, nil) }
}

// Open loads the snapshot and returns a ready store. A missing or unreadable
// snapshot is logged and yields an empty store; Open never fails.
func Open(ctx context.Context, snap Snapshotter, opts ...Option) *Store {
	s := &Store{
		index:  make(map[string]int),
		snap:   snap,
		logger: log.New(os.Stdout, "[appointments] ", log.LstdFlags|log.Lshortfile),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister != nil {
		s.persister.snap = snap
		s.persister.logger = s.logger
	}

	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	data, err := s.snap.Load(ctx)
	if err != nil {
		s.logger.Printf("snapshot load failed, starting empty: %v", err)
		return
	}
	if len(data) == 0 {
		return
	}

	var records []Appointment
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Printf("snapshot unreadable, starting empty: %v", err)
		return
	}

	for _, a := range records {
		if a.ID == "" {
			s.logger.Printf("snapshot record without id skipped")
			continue
		}
		if _, dup := s.index[a.ID]; dup {
			s.logger.Printf("snapshot duplicate id=%s skipped", a.ID)
			continue
		}
		s.index[a.ID] = len(s.appointments)
		s.appointments = append(s.appointments, a)
	}
	s.logger.Printf("snapshot loaded count=%d", len(s.appointments))
}

// Create validates the draft, assigns a fresh id and status pending, and
// persists the new list.
func (s *Store) Create(ctx context.Context, d Draft) (*Appointment, error) {
	serviceIDs := dedupe(d.ServiceIDs)
	if fields := validateDraft(d, serviceIDs); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	clientID := d.ClientID
	if clientID == "" {
		clientID = "guest"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.freshID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	appt := Appointment{
		ID:          id,
		ClientID:    clientID,
		StylistID:   d.StylistID,
		ServiceIDs:  serviceIDs,
		Date:        d.Date,
		Time:        d.Time,
		Status:      StatusPending,
		Notes:       d.Notes,
		TotalPrice:  d.TotalPrice,
		Duration:    d.Duration,
		ClientName:  strings.TrimSpace(d.ClientName),
		ClientPhone: strings.TrimSpace(d.ClientPhone),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.index[appt.ID] = len(s.appointments)
	s.appointments = append(s.appointments, appt)
	s.persistLocked(ctx)

	out := appt.clone()
	return &out, nil
}

// Update applies p to the appointment. Asking for the status it already has
// is a no-op for a role allowed to set that status; any other change must be
// a permitted transition for the actor's role.
func (s *Store) Update(ctx context.Context, actor session.Actor, id string, p Patch) (*Appointment, error) {
	_, after, err := s.Apply(ctx, actor, id, p)
	return after, err
}

// Apply is Update that also returns the record as it was before the patch,
// both read under the same lock.
func (s *Store) Apply(ctx context.Context, actor session.Actor, id string, p Patch) (before, after *Appointment, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	current := s.appointments[i]
	if !Visible(actor, current) {
		return nil, nil, ErrForbidden
	}
	prev := current.clone()

	next := current
	changed := false

	if p.Status != nil {
		if *p.Status == current.Status {
			if err := checkRepeat(current.Status, actor.Role); err != nil {
				return nil, nil, err
			}
		} else {
			if err := checkTransition(current.Status, *p.Status, actor.Role); err != nil {
				return nil, nil, err
			}
			next.Status = *p.Status
			changed = true
		}
	}
	if p.Notes != nil && *p.Notes != current.Notes {
		next.Notes = *p.Notes
		changed = true
	}

	if !changed {
		out := current.clone()
		return &prev, &out, nil
	}

	next.UpdatedAt = s.now()
	s.appointments[i] = next
	s.persistLocked(ctx)

	out := next.clone()
	return &prev, &out, nil
}

// Cancel is Update with status cancelled.
func (s *Store) Cancel(ctx context.Context, actor session.Actor, id string) (*Appointment, error) {
	st := StatusCancelled
	return s.Update(ctx, actor, id, Patch{Status: &st})
}

func (s *Store) Get(ctx context.Context, actor session.Actor, id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	a := s.appointments[i]
	if !Visible(actor, a) {
		return nil, ErrForbidden
	}
	out := a.clone()
	return &out, nil
}

// List projects the collection for a role: clients see their own bookings,
// stylists the ones assigned to them, admins everything. Unknown roles see
// nothing. Order is insertion order.
func (s *Store) List(role session.Role, userID string) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Appointment, 0)
	for _, a := range s.appointments {
		var keep bool
		switch role {
		case session.RoleAdmin:
			keep = true
		case session.RoleStylist:
			keep = a.StylistID == userID
		case session.RoleClient:
			keep = a.ClientID == userID
		}
		if keep {
			out = append(out, a.clone())
		}
	}
	return out
}

// All returns every record, for availability and seeding.
func (s *Store) All() []Appointment {
	return s.List(session.RoleAdmin, "")
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments)
}

// RunPersister drives write-behind saves until ctx is cancelled, then flushes
// once more. It returns immediately when write-behind is off.
func (s *Store) RunPersister(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.persister.run(ctx)
}

// Flush writes any pending write-behind snapshot now.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.flush(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// persistLocked saves the current list. Failures are logged and swallowed so
// the in-memory change stands.
func (s *Store) persistLocked(ctx context.Context) {
	records := s.appointments
	if records == nil {
		records = []Appointment{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Printf("%v: encode snapshot: %v", ErrPersistence, err)
		return
	}

	if s.persister != nil {
		s.persister.offer(data)
		return
	}
	if err := s.snap.Save(ctx, data); err != nil {
		s.logger.Printf("%v: save snapshot: %v", ErrPersistence, err)
	}
}

func (s *Store) freshID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, taken := s.index[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique appointment id after %d attempts", maxIDAttempts)
}

// Validate reports every missing or malformed field of d.
func (d Draft) Validate() error {
	if fields := validateDraft(d, dedupe(d.ServiceIDs)); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateDraft(d Draft, serviceIDs []string) []string {
	var fields []string
	if strings.TrimSpace(d.ClientName) == "" {
		fields = append(fields, "clientName")
	}
	if strings.TrimSpace(d.ClientPhone) == "" {
		fields = append(fields, "clientPhone")
	}
	if _, err := time.Parse(dateLayout, d.Date); err != nil {
		fields = append(fields, "date")
	}
	if !onGrid(d.Time) {
		fields = append(fields, "time")
	}
	if strings.TrimSpace(d.StylistID) == "" {
		fields = append(fields, "stylistId")
	}
	if len(serviceIDs) == 0 {
		fields = append(fields, "serviceIds")
	}
	if d.TotalPrice < 0 {
		fields = append(fields, "totalPrice")
	}
	if d.Duration < 0 {
		fields = append(fields, "duration")
	}
	return fields
}

// onGrid accepts HH:MM times that fall on a slot boundary.
func onGrid(clock string) bool {
	if len(clock) != len(clockLayout) {
		return false
	}
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return false
	}
	return (t.Hour()*60+t.Minute())%GridMinutes == 0
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
