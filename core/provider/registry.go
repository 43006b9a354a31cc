package provider

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// FetchResult is the outcome of one provider's inventory fetch.
type FetchResult struct {
	Provider  string
	Inventory *Inventory
	Err       error
}

// Registry holds the flat collection of registered provider adapters.
// No ordering dependency exists between adapters, so inventory fetches
// fan out concurrently behind a join barrier.
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Register appends an adapter to the registry.
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Adapters returns the registered adapters.
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}

// SimPlatform returns the first registered adapter with the extended SIM
// capability, or nil if none is registered.
func (r *Registry) SimPlatform() SimPlatform {
	for _, a := range r.adapters {
		if sp, ok := a.(SimPlatform); ok {
			return sp
		}
	}
	return nil
}

// FetchAll queries every adapter for its current inventory concurrently.
// A single adapter's failure is captured in its FetchResult and never
// aborts the others. Results are returned in registration order.
func (r *Registry) FetchAll(ctx context.Context) []FetchResult {
	results := make([]FetchResult, len(r.adapters))

	g, ctx := errgroup.WithContext(ctx)
	for i, adapter := range r.adapters {
		g.Go(func() error {
			inv, err := adapter.FetchInventory(ctx)
			if err == nil && inv != nil && inv.FetchedAt.IsZero() {
				inv.FetchedAt = time.Now().UTC()
			}
			results[i] = FetchResult{
				Provider:  adapter.Name(),
				Inventory: inv,
				Err:       err,
			}
			return nil
		})
	}
	// Goroutines only record their result, so the group never fails.
	_ = g.Wait()

	return results
}
