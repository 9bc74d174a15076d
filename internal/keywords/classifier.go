package keywords

import "strings"

// Event categories assigned by Classify. These are broader than the
// dictionary categories: feed items about weather or environment carry no
// dictionary of their own but still deserve a meaningful label.
const (
	EventCybersecurity = "cybersecurity"
	EventRegulatory    = "regulatory"
	EventMarket        = "market"
	EventEnvironmental = "environmental"
	EventOperational   = "operational"
	EventOther         = "other"
)

// categoryPatterns is an ordered first-match-wins table. Order matters:
// "central bank fines crypto exchange over breach" is regulatory before it
// is market.
var categoryPatterns = []struct {
	Category string
	Patterns []string
}{
	{EventCybersecurity, []string{
		"cyber", "ransomware", "malware", "phishing", "data breach", "hack",
		"vulnerability", "zero-day", "ddos", "data leak", "breach",
	}},
	{EventRegulatory, []string{
		"regulat", "compliance", "sanction", "legislation", "directive",
		"enforcement", "fine", "penalty", "supervisory", "licensing", "basel",
		"gdpr", "anti-money laundering",
	}},
	{EventMarket, []string{
		"interest rate", "inflation", "recession", "market", "currency",
		"exchange rate", "stock", "bond", "monetary policy", "credit rating",
		"gdp", "devaluation", "liquidity",
	}},
	{EventEnvironmental, []string{
		"climate", "flood", "earthquake", "hurricane", "wildfire", "drought",
		"storm", "environmental", "emissions", "pollution",
	}},
	{EventOperational, []string{
		"outage", "disruption", "strike", "shortage", "failure", "fraud",
		"logistics", "supply chain", "downtime", "pandemic",
	}},
}

// Classify assigns an event category from the item's title and description
// using first-match precedence over the ordered pattern table.
func Classify(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, group := range categoryPatterns {
		for _, pattern := range group.Patterns {
			if strings.Contains(text, pattern) {
				return group.Category
			}
		}
	}
	return EventOther
}
