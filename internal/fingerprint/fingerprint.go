// Package fingerprint derives stable identity digests for job postings.
// Two postings with the same fingerprint are considered the same real-world job
// regardless of which source reported them.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// locationSentinel replaces an empty or unknown location so that postings
// differing only in a present-vs-missing location normalize consistently.
const locationSentinel = "unspecified-location"

// fieldSeparator joins the normalized fields before hashing. The unit separator
// control character does not occur in normal posting text.
const fieldSeparator = "\x1f"

// companySynonyms maps corporate-suffix variants to one canonical form so that
// "Acme Ltd" and "Acme Limited" fingerprint identically.
var companySynonyms = map[string]string{
	"ltd":          "ltd",
	"limited":      "ltd",
	"inc":          "inc",
	"incorporated": "inc",
	"corp":         "corp",
	"corporation":  "corp",
	"co":           "co",
	"company":      "co",
	"llc":          "llc",
	"gmbh":         "gmbh",
}

// strippedPunctuation is the fixed set of punctuation removed during
// normalization. Characters meaningful in tech names ("+", "#", "&") are kept
// so "C++", "C#", and "AT&T" survive normalization intact.
const strippedPunctuation = ".,;:!?'\"()[]{}<>/\\|@$%^*_~`="

// Fingerprint computes the identity digest for a posting from its company,
// title, and location. It is a pure function: identical normalized inputs
// always produce the same 64-character hex digest.
func Fingerprint(company, title, location string) string {
	normCompany := normalizeCompany(company)
	normTitle := Normalize(title)
	normLocation := Normalize(location)
	if normLocation == "" {
		normLocation = locationSentinel
	}

	joined := normCompany + fieldSeparator + normTitle + fieldSeparator + normLocation
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// Normalize lowercases, strips punctuation, and collapses whitespace runs to a
// single space.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(strippedPunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// normalizeCompany applies the general normalization plus the corporate-suffix
// synonym table. Synonyms apply to the company field only.
func normalizeCompany(company string) string {
	normalized := Normalize(company)
	if normalized == "" {
		return normalized
	}

	words := strings.Split(normalized, " ")
	for i, w := range words {
		if canonical, ok := companySynonyms[w]; ok {
			words[i] = canonical
		}
	}
	return strings.Join(words, " ")
}
