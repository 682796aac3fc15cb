// Package skills provides skill-tag normalization and free-text tag extraction
// shared by the source adapters and the scoring engine.
package skills

import "strings"

// tagNormalizations maps common skill name variants to canonical names.
var tagNormalizations = map[string]string{
	"golang":           "Go",
	"go lang":          "Go",
	"javascript":       "JavaScript",
	"js":               "JavaScript",
	"typescript":       "TypeScript",
	"ts":               "TypeScript",
	"k8s":              "Kubernetes",
	"kubernetes":       "Kubernetes",
	"react.js":         "React",
	"reactjs":          "React",
	"vue.js":           "Vue",
	"vuejs":            "Vue",
	"node.js":          "Node.js",
	"nodejs":           "Node.js",
	"node":             "Node.js",
	"postgres":         "PostgreSQL",
	"postgresql":       "PostgreSQL",
	"psql":             "PostgreSQL",
	"py":               "Python",
	"python":           "Python",
	"aws":              "AWS",
	"gcp":              "GCP",
	"c#":               "C#",
	"csharp":           "C#",
	"c++":              "C++",
	"cpp":              "C++",
	"rust":             "Rust",
	"sql":              "SQL",
	"docker":           "Docker",
	"terraform":        "Terraform",
	"kafka":            "Kafka",
	"redis":            "Redis",
	"graphql":          "GraphQL",
	"rest":             "REST",
	"grpc":             "gRPC",
	"ml":               "Machine Learning",
	"machine learning": "Machine Learning",
}

// NormalizeTag normalizes a skill tag to its canonical form. Unknown tags are
// title-cased on a best-effort basis; empty input returns "".
func NormalizeTag(tag string) string {
	normalized := strings.TrimSpace(tag)
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := tagNormalizations[lower]; ok {
		return canonical
	}

	// Keep mixed-case input as-is; the author likely already cased it.
	if normalized != strings.ToUpper(normalized) && normalized != strings.ToLower(normalized) {
		return normalized
	}

	// Short all-caps tokens are treated as acronyms.
	if normalized == strings.ToUpper(normalized) && len(normalized) <= 4 {
		return normalized
	}

	return strings.ToUpper(lower[:1]) + lower[1:]
}

// NormalizeTags normalizes and deduplicates a tag list, preserving first-seen
// order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}
