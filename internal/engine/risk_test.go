package engine

import "testing"

func TestRiskScoreFormula(t *testing.T) {
	u := Upgrade{
		Package: "requests",
		Current: ParseVersion("1.0.0"),
		Target:  ParseVersion("2.0.0"), // major bump, severity 3
		Usage:   4,
		Primary: true,
	}
	// 5*4 + 3*1 + 2*3 = 20 + 3 + 6 = 29
	if got := RiskScore(u); got != 29 {
		t.Fatalf("RiskScore() = %d, want 29", got)
	}
}

func TestSortByRiskDescendingStrictOrder(t *testing.T) {
	upgrades := []Upgrade{
		{Package: "low", Current: ParseVersion("1.0.0"), Target: ParseVersion("1.0.1"), Usage: 0},
		{Package: "high", Current: ParseVersion("1.0.0"), Target: ParseVersion("2.0.0"), Usage: 5, Primary: true},
		{Package: "mid", Current: ParseVersion("1.0.0"), Target: ParseVersion("1.1.0"), Usage: 1},
	}
	SortByRiskDescending(upgrades)

	want := []string{"high", "mid", "low"}
	for i, w := range want {
		if upgrades[i].Package != w {
			t.Errorf("order[%d] = %q, want %q", i, upgrades[i].Package, w)
		}
	}
}

func TestSortByRiskDescendingTieBreaksByName(t *testing.T) {
	upgrades := []Upgrade{
		{Package: "zeta", Current: ParseVersion("1.0.0"), Target: ParseVersion("1.0.1")},
		{Package: "alpha", Current: ParseVersion("1.0.0"), Target: ParseVersion("1.0.1")},
	}
	SortByRiskDescending(upgrades)
	if upgrades[0].Package != "alpha" || upgrades[1].Package != "zeta" {
		t.Fatalf("tie-break order = %v, want [alpha zeta]", upgrades)
	}
}
