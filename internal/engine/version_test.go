package engine

import "testing"

func TestParseVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.1", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.0", "1.0.0", 0},
		{"1!1.0.0", "2.0.0", 1},
		{"1.0.0rc1", "1.0.0", -1},
		{"1.0.0", "1.0.0rc1", 1},
		{"2024.1.1", "2024.1.2", -1},
	}

	for _, tt := range tests {
		a, b := ParseVersion(tt.a), ParseVersion(tt.b)
		got, ok := a.Compare(b)
		if !ok {
			t.Fatalf("Compare(%q, %q): not ok", tt.a, tt.b)
		}
		if got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseVersionInvalid(t *testing.T) {
	v := ParseVersion("not-a-version!!!")
	if v.Valid() {
		t.Fatalf("expected invalid version")
	}

	other := ParseVersion("1.0.0")
	if _, ok := v.Compare(other); ok {
		t.Fatalf("expected incomparable result for invalid version")
	}
}

func TestGreatestStablePrefersStable(t *testing.T) {
	versions := []Version{
		ParseVersion("1.0.0"),
		ParseVersion("1.1.0rc1"),
		ParseVersion("0.9.0"),
	}
	got, ok := GreatestStable(versions)
	if !ok || got.String() != "1.0.0" {
		t.Fatalf("GreatestStable() = %v, %v, want 1.0.0, true", got, ok)
	}
}

func TestGreatestStableFallsBackToPrerelease(t *testing.T) {
	versions := []Version{
		ParseVersion("1.1.0rc1"),
		ParseVersion("1.0.0rc1"),
	}
	got, ok := GreatestStable(versions)
	if !ok || got.String() != "1.1.0rc1" {
		t.Fatalf("GreatestStable() = %v, %v, want 1.1.0rc1, true", got, ok)
	}
}

func TestRangeHalfOpenAscendingStableOnly(t *testing.T) {
	versions := []Version{
		ParseVersion("1.0.0"),
		ParseVersion("1.0.1"),
		ParseVersion("1.0.2rc1"),
		ParseVersion("1.0.4"),
		ParseVersion("1.0.5"),
	}
	got := Range(versions, ParseVersion("1.0.0"), ParseVersion("1.0.5"))
	if len(got) != 3 {
		t.Fatalf("Range() = %v, want 3 entries", got)
	}
	want := []string{"1.0.0", "1.0.1", "1.0.4"}
	for i, w := range want {
		if got[i].String() != w {
			t.Errorf("Range()[%d] = %q, want %q", i, got[i].String(), w)
		}
	}
}

func TestSemverSeverity(t *testing.T) {
	tests := []struct {
		cur, target string
		want        int
	}{
		{"1.2.3", "2.0.0", 3},
		{"1.2.3", "1.3.0", 2},
		{"1.2.3", "1.2.4", 1},
		{"not-a-version", "1.0.0", 1},
		{"2024.1.1", "2024.2.1", 2},
		{"2024.1.1", "2025.1.1", 3},
	}
	for _, tt := range tests {
		got := semverSeverity(ParseVersion(tt.cur), ParseVersion(tt.target))
		if got != tt.want {
			t.Errorf("semverSeverity(%q, %q) = %d, want %d", tt.cur, tt.target, got, tt.want)
		}
	}
}
