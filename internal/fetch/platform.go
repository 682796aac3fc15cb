// Package fetch - platform.go provides job-board platform detection and
// platform-specific selectors for the scraper adapters.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "greenhouse.io") {
		return PlatformGreenhouse
	}
	if strings.Contains(host, "lever.co") {
		return PlatformLever
	}
	if strings.Contains(host, "workday.com") ||
		strings.Contains(host, "myworkdayjobs.com") {
		return PlatformWorkday
	}

	return PlatformUnknown
}

// FieldSelectors holds the CSS selectors a scraper uses to pull the identity
// fields of a single posting page.
type FieldSelectors struct {
	Title    []string
	Company  []string
	Location []string
}

// PlatformFieldSelectors returns field selectors tuned for a platform.
func PlatformFieldSelectors(platform Platform) FieldSelectors {
	switch platform {
	case PlatformGreenhouse:
		return FieldSelectors{
			Title:    []string{".app-title", ".job__title h1", "h1"},
			Company:  []string{".company-name", ".job__company"},
			Location: []string{".location", ".job__location"},
		}
	case PlatformLever:
		return FieldSelectors{
			Title:    []string{".posting-headline h2", "h2"},
			Company:  []string{".main-header-logo img[alt]", ".posting-company"},
			Location: []string{".posting-categories .location", ".sort-by-time.posting-category"},
		}
	case PlatformWorkday:
		return FieldSelectors{
			Title:    []string{"[data-automation-id='jobPostingHeader']", "h1"},
			Company:  []string{"[data-automation-id='company']"},
			Location: []string{"[data-automation-id='locations']"},
		}
	default:
		return FieldSelectors{
			Title:    []string{".job-title", "h1.title", "h1"},
			Company:  []string{".company", ".company-name", "[itemprop='hiringOrganization']"},
			Location: []string{".location", ".job-location", "[itemprop='jobLocation']"},
		}
	}
}

// PlatformContentSelectors returns description content selectors for a platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			".job__description.body",
			".job__description",
			"#content",
		}
	case PlatformLever:
		return []string{
			".posting-description",
			".section-wrapper.page-full-width",
			".content",
		}
	case PlatformWorkday:
		return []string{
			"[data-automation-id='jobDescription']",
			".job-description",
		}
	default:
		return []string{
			".job-description",
			".job-content",
			"#job-description",
			".posting-content",
			".job-details",
			"main",
			"article",
			".content",
			"#content",
		}
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors shared by all
// platforms: application forms, EEO boilerplate, share widgets.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",
		".voluntary-disclosure",
		".eeo-statement",
		".social-share",
		".share-buttons",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common, ".application--wrapper", "#application")
	case PlatformLever:
		return append(common, ".postings-btn-wrapper")
	default:
		return common
	}
}
