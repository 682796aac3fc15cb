package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobscout/internal/metrics"
	"github.com/jonathan/jobscout/internal/quota"
	"github.com/jonathan/jobscout/internal/sources"
	"github.com/jonathan/jobscout/internal/types"
)

// Store is the slice of storage the orchestrator needs: fingerprint lookups
// for cross-run dedup and single-posting inserts.
type Store interface {
	// FindFingerprints returns the set of fingerprints already persisted.
	// An empty sourceFilter means all sources.
	FindFingerprints(ctx context.Context, sourceFilter []string) (map[string]struct{}, error)
	InsertPosting(ctx context.Context, posting *types.CanonicalPosting) (uuid.UUID, error)
}

// Invalidator is notified after a run persists new postings so cached
// recommendations built on the old candidate set can be discarded.
type Invalidator interface {
	InvalidateAll()
}

// Orchestrator fans fetches out across registered source adapters, merges the
// results, deduplicates by fingerprint, and persists net-new postings.
type Orchestrator struct {
	registry       *sources.Registry
	gate           *quota.Manager
	store          Store
	invalidator    Invalidator
	metrics        *metrics.Manager
	log            *zap.Logger
	maxConcurrent  int
	adapterTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches a metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithInvalidator attaches a recommendation cache to flush after persistence.
func WithInvalidator(inv Invalidator) Option {
	return func(o *Orchestrator) { o.invalidator = inv }
}

// WithMaxConcurrent bounds the number of adapters fetching at once.
func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithAdapterTimeout bounds each adapter's fetch.
func WithAdapterTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.adapterTimeout = d
		}
	}
}

// New creates an Orchestrator over the given registry, quota gate and store.
func New(registry *sources.Registry, gate *quota.Manager, store Store, log *zap.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		registry:       registry,
		gate:           gate,
		store:          store,
		log:            log.Named("ingest"),
		maxConcurrent:  4,
		adapterTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type adapterOutcome struct {
	result sources.FetchResult
	err    error
}

// IngestForCriteria runs one ingestion pass. enabledSources narrows the run to
// the named sources; nil or empty means every registered source. The returned
// report is always populated, including when individual sources fail.
func (o *Orchestrator) IngestForCriteria(ctx context.Context, criteria types.Criteria, enabledSources []string) Report {
	report := Report{
		StartedAt:    time.Now().UTC(),
		SourceErrors: map[string]string{},
	}

	adapters := o.selectAdapters(enabledSources, &report)

	outcomes := make([]adapterOutcome, len(adapters))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, o.adapterTimeout)
			defer cancel()

			result, err := adapter.Fetch(fctx, criteria)
			mu.Lock()
			outcomes[i] = adapterOutcome{result: result, err: err}
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; failures are isolated per source.
	_ = g.Wait()

	batch := o.collect(adapters, outcomes, &report)
	fresh := o.dropPersisted(ctx, batch, &report)
	o.persist(ctx, fresh, &report)

	if report.Persisted > 0 && o.invalidator != nil {
		o.invalidator.InvalidateAll()
	}

	report.FinishedAt = time.Now().UTC()
	o.log.Info("ingestion run complete",
		zap.Int("fetched", report.Fetched),
		zap.Int("batch_duplicates", report.BatchDuplicates),
		zap.Int("store_duplicates", report.StoreDuplicates),
		zap.Int("malformed_dropped", report.MalformedDropped),
		zap.Int("persisted", report.Persisted),
		zap.Int("source_errors", len(report.SourceErrors)))
	return report
}

// selectAdapters resolves the run's adapters in registry priority order,
// skipping sources the quota manager rejects before any work is done.
func (o *Orchestrator) selectAdapters(enabledSources []string, report *Report) []sources.Adapter {
	enabled := map[string]bool{}
	for _, name := range enabledSources {
		enabled[name] = true
	}

	var selected []sources.Adapter
	for _, adapter := range o.registry.Adapters() {
		if len(enabled) > 0 && !enabled[adapter.Name()] {
			continue
		}
		if o.gate != nil && !o.gate.Permitted(adapter.Name()) {
			report.SkippedSources = append(report.SkippedSources, adapter.Name())
			if o.metrics != nil {
				o.metrics.QuotaRejected(adapter.Name(), "pre_run")
			}
			o.log.Info("source skipped by quota gate", zap.String("source", adapter.Name()))
			continue
		}
		selected = append(selected, adapter)
	}
	return selected
}

// collect merges adapter outcomes in priority order and performs intra-batch
// fingerprint dedup. The first occurrence wins; later duplicates only
// contribute their source to AltSources.
func (o *Orchestrator) collect(adapters []sources.Adapter, outcomes []adapterOutcome, report *Report) []*types.CanonicalPosting {
	seen := map[string]*types.CanonicalPosting{}
	var batch []*types.CanonicalPosting

	for i, adapter := range adapters {
		outcome := outcomes[i]
		report.Fetched += outcome.result.Malformed
		report.MalformedDropped += outcome.result.Malformed
		if o.metrics != nil {
			for j := 0; j < outcome.result.Malformed; j++ {
				o.metrics.PostingMalformed(adapter.Name())
			}
		}
		if outcome.err != nil {
			// Partial results still count; only the error is recorded.
			report.SourceErrors[adapter.Name()] = outcome.err.Error()
			if o.metrics != nil {
				o.metrics.AdapterError(adapter.Name())
			}
			o.log.Warn("source fetch failed",
				zap.String("source", adapter.Name()),
				zap.Int("partial_postings", len(outcome.result.Postings)),
				zap.Error(outcome.err))
		}

		for _, posting := range outcome.result.Postings {
			report.Fetched++
			if o.metrics != nil {
				o.metrics.PostingsFetched(adapter.Name(), 1)
			}
			if first, ok := seen[posting.Fingerprint]; ok {
				report.BatchDuplicates++
				if o.metrics != nil {
					o.metrics.PostingsDuplicate("batch", 1)
				}
				first.AddAltSource(posting.Source)
				continue
			}
			p := posting
			seen[p.Fingerprint] = &p
			batch = append(batch, &p)
		}
	}
	return batch
}

// dropPersisted removes postings whose fingerprint already exists in storage.
func (o *Orchestrator) dropPersisted(ctx context.Context, batch []*types.CanonicalPosting, report *Report) []*types.CanonicalPosting {
	if len(batch) == 0 {
		return nil
	}
	known, err := o.store.FindFingerprints(ctx, nil)
	if err != nil {
		report.StoreError = err.Error()
		o.log.Error("fingerprint lookup failed, skipping persistence", zap.Error(err))
		return nil
	}

	fresh := batch[:0]
	for _, posting := range batch {
		if _, ok := known[posting.Fingerprint]; ok {
			report.StoreDuplicates++
			if o.metrics != nil {
				o.metrics.PostingsDuplicate("store", 1)
			}
			continue
		}
		fresh = append(fresh, posting)
	}
	return fresh
}

func (o *Orchestrator) persist(ctx context.Context, fresh []*types.CanonicalPosting, report *Report) {
	for _, posting := range fresh {
		if posting.ID == uuid.Nil {
			posting.ID = uuid.New()
		}
		if _, err := o.store.InsertPosting(ctx, posting); err != nil {
			report.PersistFailures++
			o.log.Warn("posting insert failed",
				zap.String("source", posting.Source),
				zap.String("fingerprint", posting.Fingerprint),
				zap.Error(err))
			continue
		}
		report.Persisted++
		if o.metrics != nil {
			o.metrics.PostingsPersisted(1)
		}
	}
}
