package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCountTalliesImportsByTopLevelModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "import requests\nimport Requests\nfrom requests import get\n")
	writeFile(t, filepath.Join(root, "pkg", "b.py"), "from requests.auth import HTTPBasicAuth\nimport click\n")

	counts, err := Count(root)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}

	if counts["requests"] != 4 {
		t.Errorf("counts[requests] = %d, want 4 (case/dotted variants normalized together)", counts["requests"])
	}
	if counts["click"] != 1 {
		t.Errorf("counts[click] = %d, want 1", counts["click"])
	}
}

func TestCountSkipsEnvironmentDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bootstrap_venv", "lib", "site.py"), "import noise\n")
	writeFile(t, filepath.Join(root, "real.py"), "import requests\n")

	counts, err := Count(root)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if counts["noise"] != 0 {
		t.Errorf("counts[noise] = %d, want 0 (bootstrap_venv must be skipped)", counts["noise"])
	}
	if counts["requests"] != 1 {
		t.Errorf("counts[requests] = %d, want 1", counts["requests"])
	}
}

func TestCountIgnoresNonPythonFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "import requests\n")

	counts, err := Count(root)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts = %v, want empty (only .py files should be scanned)", counts)
	}
}
