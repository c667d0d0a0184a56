package collector

import "context"

// Registry fixes an ordered list of collectors (spec §4.2, §9 "Polymorphic
// collector bank"). Order matters: it is the order the guest orchestrator
// invokes Collect in during the collecting phase (spec §4.3 step 11), and
// the order collectors appear in /api/status and /api/collectors.
type Registry struct {
	collectors []Collector
}

// NewRegistry builds a registry from an ordered collector list.
func NewRegistry(collectors ...Collector) *Registry {
	return &Registry{collectors: collectors}
}

// All returns the collectors in registration order.
func (r *Registry) All() []Collector {
	return r.collectors
}

// Get returns the named collector, or nil if not registered.
func (r *Registry) Get(name string) Collector {
	for _, c := range r.collectors {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Infos publishes {name, available} pairs for every registered collector
// (spec §4.2 "The registry publishes {name, available} pairs via
// introspection").
func (r *Registry) Infos() []Info {
	infos := make([]Info, 0, len(r.collectors))
	for _, c := range r.collectors {
		infos = append(infos, Info{Name: c.Name(), Available: c.Available()})
	}
	return infos
}

// SetSample records the sample basename on every collector.
func (r *Registry) SetSample(basename string) {
	for _, c := range r.collectors {
		c.SetSample(basename)
	}
}

// StartAll calls Start on every collector that implements Starter (spec
// §4.3 step 7). A failing collector does not stop the others from being
// started (best-effort, matching the orchestrator's "best-effort" framing
// for concurrent-capture setup); every start error is returned, in
// registry order.
func (r *Registry) StartAll(ctx context.Context, cfg StartConfig) []error {
	var errs []error
	for _, c := range r.collectors {
		starter, ok := c.(Starter)
		if !ok {
			continue
		}
		if err := starter.Start(ctx, cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// StopAll calls Stop on every collector that implements Stopper (spec
// §4.3 step 10).
func (r *Registry) StopAll(ctx context.Context) []error {
	var errs []error
	for _, c := range r.collectors {
		stopper, ok := c.(Stopper)
		if !ok {
			continue
		}
		if err := stopper.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// CollectAll runs every collector's Collect in registration order,
// returning a map from collector name to its Result (spec §4.3 step 11).
// A collector failing never stops the sequence.
func (r *Registry) CollectAll(ctx context.Context) map[string]Result {
	results := make(map[string]Result, len(r.collectors))
	for _, c := range r.collectors {
		results[c.Name()] = c.Collect(ctx)
	}
	return results
}
