package keywords

import "strings"

// Match is one keyword hit, tagged with its dictionary category.
type Match struct {
	Category string
	Keyword  string
}

// Set is the merged keyword dictionary for one organization: the default
// corpus plus that organization's active additions. Immutable within a run.
type Set struct {
	entries []Entry
}

func NewSet(entries []Entry) *Set {
	kept := make([]Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		keyword := strings.TrimSpace(strings.ToLower(entry.Keyword))
		category := strings.TrimSpace(strings.ToLower(entry.Category))
		if keyword == "" || category == "" {
			continue
		}
		key := category + "\x00" + keyword
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, Entry{Category: category, Keyword: keyword})
	}
	return &Set{entries: kept}
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Scan returns every keyword contained in text, case-insensitively, in
// dictionary order.
func (s *Set) Scan(text string) []Match {
	if s == nil || len(s.entries) == 0 {
		return nil
	}

	haystack := strings.ToLower(text)
	matches := make([]Match, 0, 4)
	for _, entry := range s.entries {
		if strings.Contains(haystack, entry.Keyword) {
			matches = append(matches, Match{Category: entry.Category, Keyword: entry.Keyword})
		}
	}
	return matches
}

// PreFilter decides whether a classified feed item is worth storing and
// analyzing. This is the cost-reduction gate in front of the metered model:
// an item survives only if at least one configured keyword appears in its
// title, description, or assigned category.
func PreFilter(title, description, category string, set *Set) (bool, []string) {
	matches := set.Scan(title + " " + description + " " + category)
	if len(matches) == 0 {
		return false, nil
	}

	seen := make(map[string]struct{}, len(matches))
	matched := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, exists := seen[m.Keyword]; exists {
			continue
		}
		seen[m.Keyword] = struct{}{}
		matched = append(matched, m.Keyword)
	}
	return true, matched
}

// MatchedCategories returns the dictionary categories present in matches,
// deduplicated, in first-hit order.
func MatchedCategories(matches []Match) []string {
	seen := make(map[string]struct{}, len(matches))
	categories := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, exists := seen[m.Category]; exists {
			continue
		}
		seen[m.Category] = struct{}{}
		categories = append(categories, m.Category)
	}
	return categories
}
