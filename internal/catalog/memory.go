package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryCatalog keeps the catalog in process. Reads return copies.
type MemoryCatalog struct {
	mu       sync.RWMutex
	services map[string]Service
	stylists map[string]Stylist
}

func NewMemoryCatalog(services []Service, stylists []Stylist) *MemoryCatalog {
	c := &MemoryCatalog{
		services: make(map[string]Service, len(services)),
		stylists: make(map[string]Stylist, len(stylists)),
	}
	for _, s := range services {
		c.services[s.ID] = s
	}
	for _, s := range stylists {
		c.stylists[s.ID] = cloneStylist(s)
	}
	return c
}

// NewDefaultCatalog returns the salon's built-in services and stylists.
func NewDefaultCatalog() *MemoryCatalog {
	return NewMemoryCatalog(DefaultServices(), DefaultStylists())
}

func (c *MemoryCatalog) Services(_ context.Context) ([]Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Service, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemoryCatalog) Service(_ context.Context, id string) (*Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &s, nil
}

func (c *MemoryCatalog) Stylists(_ context.Context) ([]Stylist, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Stylist, 0, len(c.stylists))
	for _, s := range c.stylists {
		out = append(out, cloneStylist(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemoryCatalog) Stylist(_ context.Context, id string) (*Stylist, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.stylists[id]
	if !ok {
		return nil, ErrStylistNotFound
	}
	cp := cloneStylist(s)
	return &cp, nil
}

func (c *MemoryCatalog) UpsertService(_ context.Context, s Service) error {
	if err := s.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[s.ID] = s
	return nil
}

func (c *MemoryCatalog) DeleteService(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.services[id]; !ok {
		return ErrServiceNotFound
	}
	delete(c.services, id)
	return nil
}

func (c *MemoryCatalog) UpsertStylist(_ context.Context, s Stylist) error {
	if err := s.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stylists[s.ID] = cloneStylist(s)
	return nil
}

func (c *MemoryCatalog) DeleteStylist(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.stylists[id]; !ok {
		return ErrStylistNotFound
	}
	delete(c.stylists, id)
	return nil
}

func cloneStylist(s Stylist) Stylist {
	if s.Specialties != nil {
		s.Specialties = append([]string(nil), s.Specialties...)
	}
	if s.Schedule != nil {
		sched := make(WorkingHours, len(s.Schedule))
		for k, v := range s.Schedule {
			sched[k] = v
		}
		s.Schedule = sched
	}
	return s
}
