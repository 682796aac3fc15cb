package skills

import "strings"

// extractionVocabulary lists the lowercase keywords scanned for when mining
// tags out of free-form description text. Feed items rarely carry structured
// tags, so this is their main tag source.
var extractionVocabulary = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "rust",
	"ruby", "php", "scala", "kotlin", "swift", "c++", "c#", "sql",
	"postgresql", "postgres", "mysql", "mongodb", "redis", "kafka",
	"elasticsearch", "docker", "kubernetes", "k8s", "terraform", "ansible",
	"aws", "gcp", "azure", "linux", "react", "vue", "angular", "node.js",
	"nodejs", "django", "flask", "rails", "spring", "graphql", "grpc",
	"rest", "ci/cd", "machine learning", "data engineering", "devops",
}

// remoteMarkers are phrases that flag a posting as remote-friendly.
var remoteMarkers = []string{
	"remote", "work from home", "fully distributed", "anywhere",
}

// ExtractTags mines known skill keywords out of free text and returns them
// normalized and deduplicated. Matching is on word boundaries to avoid
// substring hits like "go" inside "category".
func ExtractTags(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	words := tokenSet(lower)

	var found []string
	for _, keyword := range extractionVocabulary {
		if strings.ContainsAny(keyword, " /.") {
			// Multi-word or punctuated keywords fall back to substring search.
			if strings.Contains(lower, keyword) {
				found = append(found, keyword)
			}
			continue
		}
		if words[keyword] {
			found = append(found, keyword)
		}
	}

	return NormalizeTags(found)
}

// IsRemote reports whether the location or description marks the posting as
// remote-friendly.
func IsRemote(location, description string) bool {
	haystack := strings.ToLower(location + " " + description)
	for _, marker := range remoteMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}

// tokenSet splits lowercase text into a word-membership set. Tokens keep "+"
// and "#" so "c++" and "c#" survive tokenization.
func tokenSet(lower string) map[string]bool {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '+' || r == '#' || r == '.':
			return false
		default:
			return true
		}
	})

	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[strings.Trim(tok, ".")] = true
	}
	return set
}
