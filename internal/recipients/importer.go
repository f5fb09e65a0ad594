package recipients

import (
	"regexp"
	"strings"

	"github.com/ignite/campaign-console/internal/mailapi"
)

// candidatePattern is deliberately permissive: pasted import text is
// arbitrary (signatures, CSV fragments, whole mail bodies), and a false
// positive the backend rejects is cheaper than refusing a large legitimate
// paste.
var candidatePattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// syntaxPattern is the stricter shape used for single-address validation.
var syntaxPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ParseCandidates extracts email-shaped tokens from free-form text, in
// order of appearance, lowercased and trimmed. Pure: the same text always
// yields the same sequence.
func ParseCandidates(freeText string) []string {
	matches := candidatePattern.FindAllString(freeText, -1)
	if len(matches) == 0 {
		return nil
	}
	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, strings.ToLower(strings.TrimSpace(m)))
	}
	return candidates
}

// ValidSyntax reports whether a single address passes syntactic validation.
func ValidSyntax(email string) bool {
	return syntaxPattern.MatchString(email)
}

// Classify partitions an import candidate multiset against the current
// membership. Every candidate lands in exactly one bucket, so
// TotalDetected = Imported + DuplicatesInBatch + AlreadyInList + Malformed
// holds for any input. existing keys must be lowercase.
func Classify(candidates []string, existing map[string]bool) mailapi.ImportSummary {
	summary := mailapi.ImportSummary{TotalDetected: len(candidates)}
	seen := make(map[string]bool, len(candidates))

	for _, email := range candidates {
		email = strings.ToLower(email)
		switch {
		case !ValidSyntax(email):
			summary.Malformed++
		case seen[email]:
			summary.DuplicatesInBatch++
		case existing[email]:
			summary.AlreadyInList++
			seen[email] = true
		default:
			summary.Imported++
			seen[email] = true
		}
	}
	return summary
}
