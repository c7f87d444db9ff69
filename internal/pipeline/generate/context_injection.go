package generate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// InjectAppContext rewrites a query to inline the caller's own computed
// numbers, per spec.md §4.9: e.g. "What does my 95th percentile mean?"
// with app_context {percentile_95: 2500000, success_probability: 0.92}
// becomes "What does my 95th percentile mean? (my percentile 95 is
// $2,500,000; my success probability is 0.92.)". The original text is
// left untouched for logging; this returns the rewritten copy only. The
// plain string-builder transform style is grounded on
// retrieve/query.go's normalizeQuery.
func InjectAppContext(text string, appContext map[string]float64) string {
	if len(appContext) == 0 {
		return text
	}
	keys := make([]string, 0, len(appContext))
	for k := range appContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, fmt.Sprintf("my %s is %s", humanize(k), formatValue(k, appContext[k])))
	}
	return strings.TrimSpace(text) + " (" + strings.Join(clauses, "; ") + ".)"
}

func humanize(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func formatValue(key string, v float64) string {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "probability") || strings.Contains(lower, "rate"):
		return strconv.FormatFloat(v, 'f', 2, 64)
	case strings.Contains(lower, "percentile") && v >= 1000:
		return "$" + formatThousands(v)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

func formatThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// disclaimerPoor is prepended to the answer whenever retrieval quality is
// poor, per spec.md §4.9; the generator is still invoked so the caller
// gets a grounded best-effort reply.
const disclaimerPoor = "I don't have enough information to answer precisely; "

// ApplyQualityDisclaimer prepends the poor-quality disclaimer when needed.
func ApplyQualityDisclaimer(answer string, q domain.Quality) string {
	if q != domain.QualityPoor {
		return answer
	}
	return disclaimerPoor + answer
}
