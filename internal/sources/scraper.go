package sources

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/fingerprint"
	"github.com/jonathan/jobscout/internal/skills"
	"github.com/jonathan/jobscout/internal/types"
)

// browserTimeout bounds one headless-browser rendering attempt.
const browserTimeout = fetch.DefaultTimeout

// ScraperAdapter extracts postings from a job-board listing page: it collects
// posting links from the listing, then scrapes each posting page with
// platform-tuned selectors. It is the least reliable adapter family and
// degrades to an empty result set plus an error on any listing-level failure;
// per-posting failures are skipped and logged.
type ScraperAdapter struct {
	name         string
	listingURL   string
	linkSelector string
	company      string // fixed company for single-company boards, optional
	useBrowser   bool
	gate         Gate
	opts         *fetch.Options
	log          *zap.Logger
}

// ScraperConfig holds the source-specific scraping rules.
type ScraperConfig struct {
	ListingURL   string
	LinkSelector string
	Company      string
	UseBrowser   bool
}

// NewScraperAdapter creates a scraper for one job board.
func NewScraperAdapter(name string, cfg ScraperConfig, gate Gate, limiter *rate.Limiter, log *zap.Logger) *ScraperAdapter {
	opts := fetch.DefaultOptions()
	opts.Limiter = limiter
	linkSelector := cfg.LinkSelector
	if linkSelector == "" {
		linkSelector = "a[href*='/jobs/'], a[href*='/job/'], a.posting-title"
	}
	return &ScraperAdapter{
		name:         name,
		listingURL:   cfg.ListingURL,
		linkSelector: linkSelector,
		company:      cfg.Company,
		useBrowser:   cfg.UseBrowser,
		gate:         gate,
		opts:         opts,
		log:          log.Named(name),
	}
}

// Name returns the source name.
func (s *ScraperAdapter) Name() string { return s.name }

// Kind returns the adapter family.
func (s *ScraperAdapter) Kind() string { return KindScraper }

// Fetch scrapes the listing page and then each posting page, up to the result
// cap. Postings scraped before a mid-run quota denial are returned with the error.
func (s *ScraperAdapter) Fetch(ctx context.Context, criteria types.Criteria) (FetchResult, error) {
	var result FetchResult

	if !s.gate.Allow(s.name) {
		return result, &ErrQuotaDenied{Source: s.name}
	}

	listing, err := fetch.URL(ctx, s.listingURL, s.opts)
	if err != nil {
		s.gate.RecordResult(s.name, false, retryAfterOf(listing))
		return result, &FetchError{Source: s.name, Message: "listing fetch failed", Cause: err}
	}
	s.gate.RecordResult(s.name, true, 0)

	links, err := s.extractLinks(listing.Body)
	if err != nil {
		return result, &FetchError{Source: s.name, Message: "listing parse failed", Cause: err}
	}

	limit := maxResults(criteria)
	for _, link := range links {
		if len(result.Postings) >= limit {
			break
		}
		if !s.gate.Allow(s.name) {
			return result, &ErrQuotaDenied{Source: s.name}
		}

		posting, ok, err := s.scrapePosting(ctx, link)
		if err != nil {
			s.gate.RecordResult(s.name, false, 0)
			s.log.Warn("posting scrape failed", zap.String("url", link), zap.Error(err))
			continue
		}
		s.gate.RecordResult(s.name, true, 0)
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

// extractLinks pulls absolute posting URLs out of the listing page.
func (s *ScraperAdapter) extractLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(s.listingURL)
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find(s.linkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
	})

	return links, nil
}

// scrapePosting fetches one posting page and extracts its fields. The second
// return value is false when the page yields no company or title (malformed).
func (s *ScraperAdapter) scrapePosting(ctx context.Context, pageURL string) (types.CanonicalPosting, bool, error) {
	resp, err := fetch.URL(ctx, pageURL, s.opts)
	if err != nil {
		return types.CanonicalPosting{}, false, err
	}
	html := resp.Body

	platform := fetch.DetectPlatform(pageURL)
	description, err := fetch.ExtractMainText(html,
		fetch.PlatformContentSelectors(platform),
		fetch.PlatformNoiseSelectors(platform)...)
	if err != nil {
		return types.CanonicalPosting{}, false, err
	}

	// JavaScript-rendered boards serve a near-empty shell; rerender headless.
	if s.useBrowser && fetch.ShouldUseBrowser(description) {
		rendered, err := fetch.WithBrowser(ctx, pageURL, browserTimeout)
		if err != nil {
			s.log.Warn("browser fallback failed", zap.String("url", pageURL), zap.Error(err))
		} else {
			html = rendered
			description, _ = fetch.ExtractMainText(html,
				fetch.PlatformContentSelectors(platform),
				fetch.PlatformNoiseSelectors(platform)...)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.CanonicalPosting{}, false, err
	}

	selectors := fetch.PlatformFieldSelectors(platform)
	title := firstText(doc, selectors.Title)
	company := s.company
	if company == "" {
		company = firstText(doc, selectors.Company)
	}
	location := firstText(doc, selectors.Location)

	if title == "" || company == "" {
		return types.CanonicalPosting{}, false, nil
	}

	return types.CanonicalPosting{
		Source:      s.name,
		ExternalID:  pageURL,
		Company:     company,
		Title:       title,
		Location:    location,
		Remote:      skills.IsRemote(location, description),
		Tags:        skills.ExtractTags(title + " " + description),
		Description: description,
		ApplyURL:    pageURL,
		PostedAt:    time.Now().UTC(),
		Fingerprint: fingerprint.Fingerprint(company, title, location),
	}, true, nil
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			if text := strings.TrimSpace(sel.First().Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// retryAfterOf safely reads the Retry-After hint from a possibly-nil result.
func retryAfterOf(resp *fetch.Result) time.Duration {
	if resp != nil {
		return resp.RetryAfter
	}
	return 0
}
