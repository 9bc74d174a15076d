package keywords

import "testing"

func TestClassifyAssignsExpectedCategories(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{
			name:  "ransomware headline is cybersecurity",
			title: "Ransomware gang hits hospital network",
			want:  EventCybersecurity,
		},
		{
			name:  "central bank rate decision is market",
			title: "Central bank raises interest rate by 50 basis points",
			want:  EventMarket,
		},
		{
			name:        "inflation report is market",
			title:       "Prices keep climbing",
			description: "Annual inflation reached 9.4 percent in August",
			want:        EventMarket,
		},
		{
			name:  "new directive is regulatory",
			title: "EU directive tightens reporting requirements",
			want:  EventRegulatory,
		},
		{
			name:  "flood warning is environmental",
			title: "Severe flood warnings issued for coastal regions",
			want:  EventEnvironmental,
		},
		{
			name:  "port strike is operational",
			title: "Dock workers strike shuts down container port",
			want:  EventOperational,
		},
		{
			name:  "sports news is other",
			title: "Local team wins championship final",
			want:  EventOther,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.title, tc.description); got != tc.want {
				t.Fatalf("Classify(%q, %q) = %q, want %q", tc.title, tc.description, got, tc.want)
			}
		})
	}
}

func TestClassifyPrecedenceIsOrdered(t *testing.T) {
	t.Parallel()

	// Mentions both a fine (regulatory) and a breach (cybersecurity); the
	// cybersecurity group is checked first.
	got := Classify("Regulator fines exchange over data breach", "")
	if got != EventCybersecurity {
		t.Fatalf("Classify precedence = %q, want %q", got, EventCybersecurity)
	}

	// Regulatory outranks market when both match.
	got = Classify("New legislation caps interest rate spreads", "")
	if got != EventRegulatory {
		t.Fatalf("Classify precedence = %q, want %q", got, EventRegulatory)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	if got := Classify("RANSOMWARE ATTACK CONFIRMED", ""); got != EventCybersecurity {
		t.Fatalf("Classify upper-case = %q, want %q", got, EventCybersecurity)
	}
}
