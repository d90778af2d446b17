package engine

// Upgrade is one candidate raise of a pinned package to a newer version,
// the unit the pass orchestrator plans and the risk scorer orders.
type Upgrade struct {
	Package string // normalized name
	Current Version
	Target  Version
	Usage   int
	Primary bool
}

// RiskScore computes:
//
//	score = 5*usage(p) + 3*primary(p) + 2*semver_severity(cur, target)
//
// Higher score is attempted earlier: it intentionally front-loads risky,
// high-impact upgrades so a later pass can cheaply stack low-risk upgrades
// on top of an already-proven baseline.
func RiskScore(u Upgrade) int {
	primary := 0
	if u.Primary {
		primary = 1
	}
	return 5*u.Usage + 3*primary + 2*semverSeverity(u.Current, u.Target)
}

// SortByRiskDescending orders upgrades by descending RiskScore. Ties break
// by ascending normalized package name, which keeps the plan output
// deterministic and alphabetically readable among equally risky
// candidates.
func SortByRiskDescending(upgrades []Upgrade) {
	less := func(i, j int) bool {
		si, sj := RiskScore(upgrades[i]), RiskScore(upgrades[j])
		if si != sj {
			return si > sj
		}
		return upgrades[i].Package < upgrades[j].Package
	}

	// Small, run-once-per-pass slices: a plain insertion sort keeps this
	// file free of a sort.Interface boilerplate type for one call site.
	for i := 1; i < len(upgrades); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			upgrades[j], upgrades[j-1] = upgrades[j-1], upgrades[j]
		}
	}
}
