package sources

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/fingerprint"
	"github.com/jonathan/jobscout/internal/skills"
	"github.com/jonathan/jobscout/internal/types"
)

// FeedAdapter polls an RSS or Atom feed of job postings. Job feeds carry no
// structured company field, so the company and location are mined out of the
// item title ("Senior Go Engineer at Acme (Berlin)"); items where no company
// can be derived are dropped as malformed.
type FeedAdapter struct {
	name    string
	feedURL string
	gate    Gate
	opts    *fetch.Options
	log     *zap.Logger
}

// rssDocument covers both RSS (<channel><item>) and Atom (<entry>) layouts;
// unmatched elements are simply left empty.
type rssDocument struct {
	Channel struct {
		Items []feedItem `xml:"item"`
	} `xml:"channel"`
	Entries []atomEntry `xml:"entry"`
}

type feedItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Categories  []string `xml:"category"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	ID      string `xml:"id"`
	Updated string `xml:"updated"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
	Link    struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
}

// NewFeedAdapter creates a feed adapter for one RSS/Atom URL.
func NewFeedAdapter(name, feedURL string, gate Gate, limiter *rate.Limiter, log *zap.Logger) *FeedAdapter {
	opts := fetch.DefaultOptions()
	opts.Limiter = limiter
	return &FeedAdapter{
		name:    name,
		feedURL: feedURL,
		gate:    gate,
		opts:    opts,
		log:     log.Named(name),
	}
}

// Name returns the source name.
func (f *FeedAdapter) Name() string { return f.name }

// Kind returns the adapter family.
func (f *FeedAdapter) Kind() string { return KindFeed }

// Fetch polls the feed once and maps its items. Items not matching the
// criteria keywords are filtered out locally since feeds cannot be queried.
func (f *FeedAdapter) Fetch(ctx context.Context, criteria types.Criteria) (FetchResult, error) {
	var result FetchResult

	if !f.gate.Allow(f.name) {
		return result, &ErrQuotaDenied{Source: f.name}
	}

	resp, err := fetch.URL(ctx, f.feedURL, f.opts)
	if err != nil {
		var retryAfter time.Duration
		if resp != nil {
			retryAfter = resp.RetryAfter
		}
		f.gate.RecordResult(f.name, false, retryAfter)
		return result, &FetchError{Source: f.name, Message: "feed fetch failed", Cause: err}
	}
	f.gate.RecordResult(f.name, true, 0)

	var doc rssDocument
	if err := xml.Unmarshal([]byte(resp.Body), &doc); err != nil {
		return result, &FetchError{Source: f.name, Message: "feed parse failed", Cause: err}
	}

	items := doc.Channel.Items
	for _, entry := range doc.Entries {
		items = append(items, entry.asItem())
	}

	limit := maxResults(criteria)
	for _, item := range items {
		if len(result.Postings) >= limit {
			break
		}
		posting, ok := f.mapItem(item)
		if !ok {
			result.Malformed++
			continue
		}
		if !matchesKeywords(posting, criteria.Keywords) {
			continue
		}
		result.Postings = append(result.Postings, posting)
	}

	return result, nil
}

// asItem converts an Atom entry to the common item shape.
func (e atomEntry) asItem() feedItem {
	description := e.Content
	if description == "" {
		description = e.Summary
	}
	item := feedItem{
		Title:       e.Title,
		Link:        e.Link.Href,
		GUID:        e.ID,
		Description: description,
		PubDate:     e.Updated,
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			item.Categories = append(item.Categories, c.Term)
		}
	}
	return item
}

// mapItem maps one feed item into a canonical posting.
func (f *FeedAdapter) mapItem(item feedItem) (types.CanonicalPosting, bool) {
	title, company, location := splitFeedTitle(item.Title)
	if title == "" || company == "" {
		f.log.Debug("dropping malformed feed item", zap.String("title", item.Title))
		return types.CanonicalPosting{}, false
	}

	description := stripHTML(item.Description)

	tags := skills.NormalizeTags(item.Categories)
	if len(tags) == 0 {
		tags = skills.ExtractTags(title + " " + description)
	}

	externalID := item.GUID
	if externalID == "" {
		externalID = item.Link
	}

	return types.CanonicalPosting{
		Source:      f.name,
		ExternalID:  externalID,
		Company:     company,
		Title:       title,
		Location:    location,
		Remote:      skills.IsRemote(location, description),
		Tags:        tags,
		Description: description,
		ApplyURL:    item.Link,
		PostedAt:    parseFeedTime(item.PubDate),
		Fingerprint: fingerprint.Fingerprint(company, title, location),
	}, true
}

// splitFeedTitle parses the conventional job-feed title shape
// "<role> at <company> (<location>)". The location segment is optional.
func splitFeedTitle(raw string) (title, company, location string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ""
	}

	if open := strings.LastIndex(raw, "("); open != -1 && strings.HasSuffix(raw, ")") {
		location = strings.TrimSpace(raw[open+1 : len(raw)-1])
		raw = strings.TrimSpace(raw[:open])
	}

	at := strings.LastIndex(raw, " at ")
	if at == -1 {
		return raw, "", location
	}

	return strings.TrimSpace(raw[:at]), strings.TrimSpace(raw[at+len(" at "):]), location
}

// parseFeedTime tries the common feed timestamp layouts, falling back to now.
func parseFeedTime(value string) time.Time {
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// stripHTML removes markup from feed descriptions, which are usually HTML
// fragments. Parse failures fall back to the raw text.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	text, err := fetch.ExtractMainText(s, nil)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return text
}

// matchesKeywords reports whether a posting mentions at least one criteria
// keyword. An empty keyword list matches everything.
func matchesKeywords(p types.CanonicalPosting, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(p.Title + " " + p.Description + " " + strings.Join(p.Tags, " "))
	for _, kw := range keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
