package billing

import "testing"

func TestNormalizeTier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "pro", want: "pro"},
		{in: " PRO ", want: "pro"},
		{in: "enterprise", want: "enterprise"},
		{in: "free", want: "free"},
		{in: "", want: "free"},
		{in: "platinum", want: "free"},
	}
	for _, tt := range tests {
		if got := normalizeTier(tt.in); got != tt.want {
			t.Fatalf("normalizeTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTierRankOrdering(t *testing.T) {
	if !(tierRank("free") < tierRank("pro") && tierRank("pro") < tierRank("enterprise")) {
		t.Fatal("tier ranks must order free < pro < enterprise")
	}
	if tierRank("unknown") != tierRank("free") {
		t.Fatal("unknown tiers rank as free")
	}
}

func TestNormalizeInterval(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "month", want: "month"},
		{in: "YEAR", want: "year"},
		{in: "weekly", want: "unknown"},
		{in: "", want: "unknown"},
	}
	for _, tt := range tests {
		if got := normalizeInterval(tt.in); got != tt.want {
			t.Fatalf("normalizeInterval(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// past_due is deliberately not entitling: access drops the moment payment
// fails, not after a grace period.
func TestIsEntitlingStatus(t *testing.T) {
	entitling := map[string]bool{
		"active":     true,
		"trialing":   true,
		"TRIALING":   true,
		"past_due":   false,
		"canceled":   false,
		"incomplete": false,
		"expired":    false,
		"":           false,
	}
	for status, want := range entitling {
		if got := isEntitlingStatus(status); got != want {
			t.Fatalf("isEntitlingStatus(%q) = %v, want %v", status, got, want)
		}
	}
}
