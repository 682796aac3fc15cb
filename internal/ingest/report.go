package ingest

import "time"

// Report summarizes one ingestion run. The orchestrator always returns a
// report, even when every source failed.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Fetched counts raw records returned by sources, including malformed
	// ones, before any dedup.
	Fetched int `json:"fetched"`
	// MalformedDropped counts raw records adapters dropped for missing fields.
	MalformedDropped int `json:"malformed_dropped"`
	// BatchDuplicates counts postings removed by intra-batch fingerprint dedup.
	BatchDuplicates int `json:"batch_duplicates"`
	// StoreDuplicates counts postings whose fingerprint was already persisted.
	StoreDuplicates int `json:"store_duplicates"`
	// Persisted counts net-new postings written to storage.
	Persisted int `json:"persisted"`
	// PersistFailures counts postings the store rejected; each is skipped, not fatal.
	PersistFailures int `json:"persist_failures"`

	// SkippedSources lists sources rejected up front by the quota manager.
	SkippedSources []string `json:"skipped_sources,omitempty"`
	// SourceErrors maps each failed source to its error text.
	SourceErrors map[string]string `json:"source_errors,omitempty"`
	// StoreError reports a run-level storage failure (fingerprint query); when
	// set, nothing was persisted this run.
	StoreError string `json:"store_error,omitempty"`
}
