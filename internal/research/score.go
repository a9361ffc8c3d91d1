package research

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL reduces a URL to its deduplication key: scheme, host, and path
// with the query string and fragment stripped. Unparseable URLs normalize to
// themselves so they still dedupe on exact match.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(raw)
	}
	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimSuffix(parsed.Path, "/")
	return scheme + "://" + host + path
}

// reputableSuffixes are TLD-style patterns matched on label boundaries, so
// "data.gov" qualifies but "x.government.com" does not.
var reputableSuffixes = []string{".gov", ".edu"}

// reputableHosts receive a fixed reliability bonus; a host matches exactly or
// as a subdomain.
var reputableHosts = []string{
	"arxiv.org", "doi.org", "pubmed.ncbi.nlm.nih.gov",
	"reuters.com", "bloomberg.com", "ft.com", "wsj.com",
	"mckinsey.com", "gartner.com", "forrester.com", "statista.com",
	"nytimes.com", "bbc.co.uk", "techcrunch.com",
}

// lowQualityHosts receive a fixed penalty.
var lowQualityHosts = []string{
	"wordpress.com", "blogspot.com", "wix.com", "medium.com",
}

// matchesHost reports whether domain is host itself or a subdomain of it.
func matchesHost(domain, host string) bool {
	return domain == host || strings.HasSuffix(domain, "."+host)
}

// scoreReliability estimates how trustworthy a source is from its domain and
// content length alone. Scores are clamped to [0, 1]; the reasoning string is
// carried on the record for operators reading the digest.
func scoreReliability(domain, content string) (float64, string) {
	score := 0.5
	var reasons []string

	domain = strings.ToLower(domain)
	reputable := false
	for _, suffix := range reputableSuffixes {
		if strings.HasSuffix(domain, suffix) {
			reputable = true
			break
		}
	}
	if !reputable {
		for _, host := range reputableHosts {
			if matchesHost(domain, host) {
				reputable = true
				break
			}
		}
	}
	if reputable {
		score += 0.25
		reasons = append(reasons, "reputable domain")
	}
	for _, host := range lowQualityHosts {
		if matchesHost(domain, host) {
			score -= 0.15
			reasons = append(reasons, "low-authority host")
			break
		}
	}

	// Longer non-boilerplate content scores higher, flattening past ~4000
	// characters so scraped walls of text do not dominate.
	length := len(content)
	switch {
	case length >= 4000:
		score += 0.25
		reasons = append(reasons, "substantial content")
	case length >= 1500:
		score += 0.18
		reasons = append(reasons, "moderate content")
	case length >= 400:
		score += 0.08
		reasons = append(reasons, "brief content")
	default:
		score -= 0.1
		reasons = append(reasons, "thin content")
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no signals")
	}
	return score, fmt.Sprintf("%s (domain %s, %d chars)", strings.Join(reasons, ", "), domain, length)
}

// condenseFinding cuts a content span down to a single sentence within the
// character budget. Sentence boundaries win over hard truncation when one
// falls inside the budget.
func condenseFinding(content string, budget int) string {
	finding := strings.Join(strings.Fields(content), " ")
	if finding == "" {
		return ""
	}

	if idx := sentenceEnd(finding); idx > 0 && idx <= budget {
		return finding[:idx]
	}
	if len(finding) <= budget {
		return finding
	}
	cut := finding[:budget]
	if idx := strings.LastIndex(cut, " "); idx > budget/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func sentenceEnd(s string) int {
	for i, r := range s {
		if (r == '.' || r == '!' || r == '?') && i >= 40 {
			return i + 1
		}
	}
	return -1
}

// followUpPhrases pulls short noun-ish phrases from the highest scoring
// snippets for next-level query generation. It keeps runs of capitalized or
// domain-significant words and drops anything under two words.
func followUpPhrases(content string, limit int) []string {
	words := strings.Fields(content)
	var phrases []string
	var current []string

	flush := func() {
		if len(current) >= 2 && len(current) <= 5 {
			phrases = append(phrases, strings.Join(current, " "))
		}
		current = nil
	}

	for _, word := range words {
		trimmed := strings.Trim(word, ".,!?;:()[]\"'*")
		if trimmed == "" {
			flush()
			continue
		}
		first := rune(trimmed[0])
		if first >= 'A' && first <= 'Z' {
			current = append(current, trimmed)
			continue
		}
		flush()
	}
	flush()

	seen := make(map[string]bool)
	var unique []string
	for _, phrase := range phrases {
		key := strings.ToLower(phrase)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, phrase)
		if len(unique) >= limit {
			break
		}
	}
	return unique
}
