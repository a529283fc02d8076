package version

import "testing"

func TestGet(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = " 1.2.3\n"
	if got := Get(); got != "1.2.3" {
		t.Errorf("Get() = %q, want 1.2.3", got)
	}

	Version = ""
	if got := Get(); got != "dev" {
		t.Errorf("Get() = %q, want dev", got)
	}
}
