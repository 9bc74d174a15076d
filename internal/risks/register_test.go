package risks

import "testing"

func TestHasCode(t *testing.T) {
	t.Parallel()

	riskList := []Risk{
		{Code: "CYB-001", Title: "Ransomware"},
		{Code: "MKT-003", Title: "Rates"},
	}

	if !HasCode(riskList, "CYB-001") {
		t.Fatal("HasCode missed an exact match")
	}
	if !HasCode(riskList, "mkt-003") {
		t.Fatal("HasCode should match case-insensitively")
	}
	if HasCode(riskList, "OPS-007") {
		t.Fatal("HasCode matched an absent code")
	}
	if HasCode(nil, "CYB-001") {
		t.Fatal("HasCode matched against an empty list")
	}
}
