package alog

import "os"

// Group brackets a block of log output. Under GitHub Actions it emits the
// ::group::/::endgroup:: markers the Actions log viewer uses to make a
// section collapsible, mirroring the `start_group`/`end_group` helpers the
// Python prototype printed around every install/validate phase. Outside CI
// it just prints a plain banner so local runs still get a visual break.
func Group(l *Logger, title string) func() {
	if os.Getenv("GITHUB_ACTIONS") != "" {
		l.Logf("\n::group::%s\n", title)
		return func() { l.Logf("::endgroup::\n") }
	}

	l.Logf("\n--- %s ---\n", title)
	return func() {}
}
