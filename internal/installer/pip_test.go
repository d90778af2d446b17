package installer

import "testing"

func TestBasePythonDefaultsToPython3(t *testing.T) {
	p := &Pip{}
	if got := p.basePython(); got != "python3" {
		t.Errorf("basePython() = %q, want python3", got)
	}

	p.BasePython = "python3.11"
	if got := p.basePython(); got != "python3.11" {
		t.Errorf("basePython() = %q, want python3.11 once overridden", got)
	}
}

func TestNewDefaultsBasePython(t *testing.T) {
	p := New()
	if p.BasePython != "python3" {
		t.Errorf("New().BasePython = %q, want python3", p.BasePython)
	}
}
