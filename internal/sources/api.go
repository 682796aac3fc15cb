package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/fingerprint"
	"github.com/jonathan/jobscout/internal/skills"
	"github.com/jonathan/jobscout/internal/types"
)

// apiPageSize is the page size requested from structured-API sources.
const apiPageSize = 50

// APIAdapter fetches postings from a paginated JSON endpoint. The endpoint is
// expected to serve `GET {baseURL}/jobs?search=..&location=..&page=N` returning
// an apiResponse document; this covers the common job-board API shape.
type APIAdapter struct {
	name    string
	baseURL string
	apiKey  string
	gate    Gate
	opts    *fetch.Options
	log     *zap.Logger
}

// apiResponse is the wire shape of one result page.
type apiResponse struct {
	Jobs []apiJob `json:"jobs"`
}

// apiJob is one raw posting as served by the API.
type apiJob struct {
	ID          string   `json:"id"`
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	Remote      bool     `json:"remote"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	SalaryMin   int      `json:"salary_min"`
	SalaryMax   int      `json:"salary_max"`
	Currency    string   `json:"salary_currency"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"published_at"`
}

// NewAPIAdapter creates a structured-API adapter. The limiter paces requests
// to the source independently of the quota ceiling.
func NewAPIAdapter(name, baseURL, apiKey string, gate Gate, limiter *rate.Limiter, log *zap.Logger) *APIAdapter {
	opts := fetch.DefaultOptions()
	opts.Limiter = limiter
	if apiKey != "" {
		opts.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}
	return &APIAdapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		gate:    gate,
		opts:    opts,
		log:     log.Named(name),
	}
}

// Name returns the source name.
func (a *APIAdapter) Name() string { return a.name }

// Kind returns the adapter family.
func (a *APIAdapter) Kind() string { return KindAPI }

// Fetch pages through the endpoint until the result cap, an empty page, or an
// error. Pages fetched before an error are returned alongside it.
func (a *APIAdapter) Fetch(ctx context.Context, criteria types.Criteria) (FetchResult, error) {
	var result FetchResult
	limit := maxResults(criteria)

	for page := 1; len(result.Postings) < limit; page++ {
		if !a.gate.Allow(a.name) {
			return result, &ErrQuotaDenied{Source: a.name}
		}

		pageURL := a.pageURL(criteria, page)
		resp, err := fetch.URL(ctx, pageURL, a.opts)
		if err != nil {
			var retryAfter time.Duration
			if resp != nil {
				retryAfter = resp.RetryAfter
			}
			a.gate.RecordResult(a.name, false, retryAfter)
			return result, &FetchError{Source: a.name, Message: "page fetch failed", Cause: err}
		}
		a.gate.RecordResult(a.name, true, 0)

		var doc apiResponse
		if err := json.Unmarshal([]byte(resp.Body), &doc); err != nil {
			return result, &FetchError{Source: a.name, Message: "malformed response document", Cause: err}
		}
		if len(doc.Jobs) == 0 {
			break
		}

		for _, raw := range doc.Jobs {
			if len(result.Postings) >= limit {
				break
			}
			posting, ok := a.mapJob(raw)
			if !ok {
				result.Malformed++
				continue
			}
			result.Postings = append(result.Postings, posting)
		}

		if len(doc.Jobs) < apiPageSize {
			break
		}
	}

	return result, nil
}

// pageURL builds the query URL for one result page.
func (a *APIAdapter) pageURL(criteria types.Criteria, page int) string {
	q := url.Values{}
	if len(criteria.Keywords) > 0 {
		q.Set("search", strings.Join(criteria.Keywords, " "))
	}
	if criteria.Location != "" {
		q.Set("location", criteria.Location)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(apiPageSize))
	return fmt.Sprintf("%s/jobs?%s", a.baseURL, q.Encode())
}

// mapJob defensively maps one raw record. Records missing company or title are
// rejected, not defaulted.
func (a *APIAdapter) mapJob(raw apiJob) (types.CanonicalPosting, bool) {
	company := strings.TrimSpace(raw.Company)
	title := strings.TrimSpace(raw.Title)
	if company == "" || title == "" {
		a.log.Debug("dropping malformed record",
			zap.String("external_id", raw.ID),
			zap.String("company", raw.Company),
			zap.String("title", raw.Title))
		return types.CanonicalPosting{}, false
	}

	postedAt, err := time.Parse(time.RFC3339, raw.PublishedAt)
	if err != nil {
		postedAt = time.Now().UTC()
	}

	tags := skills.NormalizeTags(raw.Tags)
	if len(tags) == 0 {
		tags = skills.ExtractTags(raw.Description)
	}

	return types.CanonicalPosting{
		Source:      a.name,
		ExternalID:  raw.ID,
		Company:     company,
		Title:       title,
		Location:    strings.TrimSpace(raw.Location),
		Remote:      raw.Remote || skills.IsRemote(raw.Location, raw.Description),
		Tags:        tags,
		Description: raw.Description,
		Salary: types.SalaryRange{
			Min:      raw.SalaryMin,
			Max:      raw.SalaryMax,
			Currency: raw.Currency,
		},
		ApplyURL:    raw.URL,
		PostedAt:    postedAt,
		Fingerprint: fingerprint.Fingerprint(company, title, raw.Location),
	}, true
}
