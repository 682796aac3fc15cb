package types

// Criteria narrows an ingestion run to postings matching keyword and location
// hints. MaxResults caps what each adapter may return; zero means the adapter's
// own default.
type Criteria struct {
	Keywords   []string `json:"keywords,omitempty"`
	Location   string   `json:"location,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}
