package version

import "testing"

func TestGetAndString(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "1.2.3", "abc123", "2026-01-02"

	if got := Get(); got != (Info{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}) {
		t.Errorf("Get() = %+v", got)
	}
	if got := String(); got != "1.2.3 (abc123, 2026-01-02)" {
		t.Errorf("String() = %q", got)
	}
}
