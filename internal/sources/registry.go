package sources

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/quota"
)

// Registry is the explicit, statically-checked list of source adapters built
// once at startup. Slice order is the source priority order used when two
// sources report the same fingerprint.
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry builds a registry from pre-constructed adapters, in priority
// order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters = append(r.adapters, a)
		r.byName[a.Name()] = a
	}
	return r
}

// BuildRegistry constructs adapters for every enabled source spec and
// registers each source's budget with the quota manager. An unknown adapter
// kind is a configuration error and therefore fatal.
func BuildRegistry(specs []config.SourceConfig, gate *quota.Manager, log *zap.Logger) (*Registry, error) {
	r := &Registry{byName: make(map[string]Adapter)}

	for _, spec := range specs {
		if !spec.Enabled {
			continue
		}

		gate.Register(spec.Name, quotaLimits(spec.Quota))
		limiter := newLimiter(spec.RatePerSecond)

		var adapter Adapter
		switch spec.Kind {
		case KindAPI:
			adapter = NewAPIAdapter(spec.Name, spec.URL, spec.APIKey(), gate, limiter, log)
		case KindFeed:
			adapter = NewFeedAdapter(spec.Name, spec.URL, gate, limiter, log)
		case KindScraper:
			adapter = NewScraperAdapter(spec.Name, ScraperConfig{
				ListingURL:   spec.URL,
				LinkSelector: spec.Scrape.LinkSelector,
				Company:      spec.Scrape.Company,
				UseBrowser:   spec.Scrape.UseBrowser,
			}, gate, limiter, log)
		default:
			return nil, fmt.Errorf("source %s: unknown adapter kind %q", spec.Name, spec.Kind)
		}

		r.adapters = append(r.adapters, adapter)
		r.byName[adapter.Name()] = adapter
	}

	return r, nil
}

// Adapters returns all enabled adapters in priority order.
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}

// Get returns the adapter with the given name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Priority returns the priority rank of a source (lower wins). Unknown
// sources rank last.
func (r *Registry) Priority(name string) int {
	for i, a := range r.adapters {
		if a.Name() == name {
			return i
		}
	}
	return len(r.adapters)
}

// quotaLimits converts a source's quota config into manager limits, falling
// back to defaults for zero fields.
func quotaLimits(q config.QuotaConfig) quota.Limits {
	limits := quota.DefaultLimits()
	if q.Ceiling > 0 {
		limits.Ceiling = q.Ceiling
	}
	if q.WindowHours > 0 {
		limits.Window = time.Duration(q.WindowHours) * time.Hour
	}
	if q.FailureThreshold > 0 {
		limits.FailureThreshold = q.FailureThreshold
	}
	if q.CooldownMinutes > 0 {
		limits.Cooldown = time.Duration(q.CooldownMinutes) * time.Minute
	}
	return limits
}

// newLimiter builds the pacing limiter for a source; nil disables pacing.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
