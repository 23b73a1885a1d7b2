package detection

import (
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractURLs returns the distinct URLs embedded in text, in order of first
// appearance
func ExtractURLs(text string) []string {
	raw := urlRegex.FindAllString(text, -1)
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimRight(u, ".,;:!?)")
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// matchKeywords returns the keywords from the list that appear in text
func matchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			matched = append(matched, keyword)
		}
	}
	return matched
}

// matchPatterns returns the first matched substring for each pattern that hits
func matchPatterns(text string, patterns []*regexp.Regexp) []string {
	var matched []string
	for _, re := range patterns {
		if m := re.FindString(text); m != "" {
			matched = append(matched, m)
		}
	}
	return matched
}

// countDistinctRunes counts how many distinct entries from the list occur in text
func countDistinctRunes(text string, entries []string) int {
	count := 0
	for _, entry := range entries {
		if strings.Contains(text, entry) {
			count++
		}
	}
	return count
}
