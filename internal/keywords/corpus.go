package keywords

// Dictionary categories. These are the KeywordEntry.category values and the
// axes the relevance fallback matches risks against.
const (
	DictCybersecurity = "cybersecurity"
	DictRegulatory    = "regulatory"
	DictMarket        = "market"
	DictOperational   = "operational"
	DictStrategic     = "strategic"
)

var DictionaryCategories = []string{
	DictCybersecurity,
	DictRegulatory,
	DictMarket,
	DictOperational,
	DictStrategic,
}

// Entry is one keyword in one dictionary category.
type Entry struct {
	Category string
	Keyword  string
}

// defaultCorpus is the built-in keyword dictionary. It is data, not control
// flow: organizations extend it through radar.keyword_entries rows.
var defaultCorpus = []Entry{
	{DictCybersecurity, "ransomware"},
	{DictCybersecurity, "data breach"},
	{DictCybersecurity, "cyberattack"},
	{DictCybersecurity, "cyber attack"},
	{DictCybersecurity, "phishing"},
	{DictCybersecurity, "malware"},
	{DictCybersecurity, "zero-day"},
	{DictCybersecurity, "vulnerability"},
	{DictCybersecurity, "exploit"},
	{DictCybersecurity, "ddos"},
	{DictCybersecurity, "denial of service"},
	{DictCybersecurity, "credential theft"},
	{DictCybersecurity, "data leak"},
	{DictCybersecurity, "hacker"},
	{DictCybersecurity, "hacking"},
	{DictCybersecurity, "cyber espionage"},
	{DictCybersecurity, "supply chain attack"},
	{DictCybersecurity, "identity theft"},
	{DictCybersecurity, "encryption"},
	{DictCybersecurity, "security flaw"},
	{DictCybersecurity, "patch"},
	{DictCybersecurity, "botnet"},
	{DictCybersecurity, "social engineering"},
	{DictCybersecurity, "insider threat"},

	{DictRegulatory, "regulation"},
	{DictRegulatory, "regulator"},
	{DictRegulatory, "compliance"},
	{DictRegulatory, "sanction"},
	{DictRegulatory, "fine"},
	{DictRegulatory, "penalty"},
	{DictRegulatory, "directive"},
	{DictRegulatory, "legislation"},
	{DictRegulatory, "central bank circular"},
	{DictRegulatory, "licensing"},
	{DictRegulatory, "capital requirement"},
	{DictRegulatory, "anti-money laundering"},
	{DictRegulatory, "money laundering"},
	{DictRegulatory, "kyc"},
	{DictRegulatory, "gdpr"},
	{DictRegulatory, "data protection"},
	{DictRegulatory, "audit finding"},
	{DictRegulatory, "enforcement action"},
	{DictRegulatory, "consent order"},
	{DictRegulatory, "prudential"},
	{DictRegulatory, "basel"},
	{DictRegulatory, "disclosure requirement"},
	{DictRegulatory, "supervisory"},
	{DictRegulatory, "statutory"},

	{DictMarket, "interest rate"},
	{DictMarket, "inflation"},
	{DictMarket, "recession"},
	{DictMarket, "exchange rate"},
	{DictMarket, "currency devaluation"},
	{DictMarket, "devaluation"},
	{DictMarket, "stock market"},
	{DictMarket, "bond yield"},
	{DictMarket, "credit rating"},
	{DictMarket, "downgrade"},
	{DictMarket, "default"},
	{DictMarket, "liquidity"},
	{DictMarket, "volatility"},
	{DictMarket, "monetary policy"},
	{DictMarket, "rate hike"},
	{DictMarket, "rate cut"},
	{DictMarket, "commodity price"},
	{DictMarket, "oil price"},
	{DictMarket, "gdp"},
	{DictMarket, "economic growth"},
	{DictMarket, "bankruptcy"},
	{DictMarket, "insolvency"},
	{DictMarket, "market crash"},
	{DictMarket, "bear market"},

	{DictOperational, "outage"},
	{DictOperational, "downtime"},
	{DictOperational, "system failure"},
	{DictOperational, "service disruption"},
	{DictOperational, "supply chain disruption"},
	{DictOperational, "supply shortage"},
	{DictOperational, "power outage"},
	{DictOperational, "grid failure"},
	{DictOperational, "strike"},
	{DictOperational, "industrial action"},
	{DictOperational, "fraud"},
	{DictOperational, "embezzlement"},
	{DictOperational, "process failure"},
	{DictOperational, "human error"},
	{DictOperational, "third-party failure"},
	{DictOperational, "vendor failure"},
	{DictOperational, "logistics"},
	{DictOperational, "port closure"},
	{DictOperational, "flood"},
	{DictOperational, "earthquake"},
	{DictOperational, "wildfire"},
	{DictOperational, "hurricane"},
	{DictOperational, "pandemic"},
	{DictOperational, "infrastructure failure"},

	{DictStrategic, "merger"},
	{DictStrategic, "acquisition"},
	{DictStrategic, "takeover"},
	{DictStrategic, "new entrant"},
	{DictStrategic, "competitor"},
	{DictStrategic, "market share"},
	{DictStrategic, "disruption"},
	{DictStrategic, "innovation"},
	{DictStrategic, "restructuring"},
	{DictStrategic, "divestiture"},
	{DictStrategic, "joint venture"},
	{DictStrategic, "partnership"},
	{DictStrategic, "expansion"},
	{DictStrategic, "geopolitical"},
	{DictStrategic, "trade war"},
	{DictStrategic, "tariff"},
	{DictStrategic, "nationalization"},
	{DictStrategic, "political instability"},
	{DictStrategic, "election"},
	{DictStrategic, "coup"},
	{DictStrategic, "reputation"},
	{DictStrategic, "boycott"},
	{DictStrategic, "leadership change"},
	{DictStrategic, "succession"},
}

// DefaultCorpus returns a copy of the built-in dictionary.
func DefaultCorpus() []Entry {
	corpus := make([]Entry, len(defaultCorpus))
	copy(corpus, defaultCorpus)
	return corpus
}

func IsDictionaryCategory(category string) bool {
	for _, c := range DictionaryCategories {
		if c == category {
			return true
		}
	}
	return false
}
