package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrStylistNotFound = errors.New("stylist not found")
	ErrInvalidEntry    = errors.New("invalid catalog entry")
)

// Catalog is the read side used by the scheduling core.
type Catalog interface {
	Services(ctx context.Context) ([]Service, error)
	Service(ctx context.Context, id string) (*Service, error)
	Stylists(ctx context.Context) ([]Stylist, error)
	Stylist(ctx context.Context, id string) (*Stylist, error)
}

// Writer backs the admin management screens.
type Writer interface {
	UpsertService(ctx context.Context, s Service) error
	DeleteService(ctx context.Context, id string) error
	UpsertStylist(ctx context.Context, s Stylist) error
	DeleteStylist(ctx context.Context, id string) error
}

type Quote struct {
	ServiceIDs []string
	Services   []Service
	TotalPrice int64
	Duration   int
}

// PriceServices sums the current price and duration of the selected services.
// Repeated ids are counted once.
func PriceServices(ctx context.Context, cat Catalog, serviceIDs []string) (Quote, error) {
	var q Quote
	seen := make(map[string]struct{}, len(serviceIDs))
	for _, id := range serviceIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		svc, err := cat.Service(ctx, id)
		if err != nil {
			return Quote{}, fmt.Errorf("quote service %s: %w", id, err)
		}
		q.ServiceIDs = append(q.ServiceIDs, svc.ID)
		q.Services = append(q.Services, *svc)
		q.TotalPrice += svc.Price
		q.Duration += svc.Duration
	}
	return q, nil
}
