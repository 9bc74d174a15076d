package store

import (
	"reflect"
	"testing"
)

func TestParsePurgeScope(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    PurgeScope
		wantErr bool
	}{
		{"unanalyzed", PurgeUnanalyzed, false},
		{" ALL ", PurgeAll, false},
		{"", "", true},
		{"everything", "", true},
	}

	for _, tc := range cases {
		got, err := ParsePurgeScope(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParsePurgeScope(%q) accepted invalid scope", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePurgeScope(%q) failed: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePurgeScope(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeKeywords(t *testing.T) {
	t.Parallel()

	if got := decodeKeywords([]byte(`["inflation","ransomware"]`)); !reflect.DeepEqual(got, []string{"inflation", "ransomware"}) {
		t.Fatalf("decodeKeywords = %v", got)
	}
	if got := decodeKeywords(nil); got != nil {
		t.Fatalf("decodeKeywords(nil) = %v", got)
	}
	if got := decodeKeywords([]byte("null")); got != nil {
		t.Fatalf("decodeKeywords(null) = %v", got)
	}
	if got := decodeKeywords([]byte("not json")); got != nil {
		t.Fatalf("decodeKeywords(garbage) = %v", got)
	}
}
