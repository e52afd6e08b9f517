package lockcheck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportConsistent(t *testing.T) {
	out := Report(Result{Checked: 4})
	assert.Equal(t, "lock manifest is up to date (4 files checked)\n", out)
	assert.NotContains(t, out, Remediation)
}

func TestReportListsEveryProblem(t *testing.T) {
	exp, act := strings.Repeat("1", 64), strings.Repeat("2", 64)
	r := Result{
		Checked:    2,
		Mismatched: []Mismatch{{Name: "a.proto", Expected: exp, Actual: act}},
		Untracked:  []string{"b.proto"},
		Orphaned:   []string{"c.proto"},
		Renamed:    []Rename{{From: "c.proto", To: "b.proto"}},
	}
	out := Report(r)
	assert.True(t, strings.HasPrefix(out, "lock check FAILED: 3 problem(s)\n"))
	for _, want := range []string{
		"  a.proto\n",
		"    expected: " + exp + "\n",
		"    actual:   " + act + "\n",
		"Untracked (no manifest entry):\n  b.proto\n",
		"Orphaned (manifest entry without source file):\n  c.proto\n",
		"  c.proto -> b.proto\n",
		Remediation,
	} {
		assert.Contains(t, out, want)
	}
	// Pure: same input gives the same text.
	assert.Equal(t, out, Report(r))
}

func TestInconsistentLockErrorMessage(t *testing.T) {
	err := Result{Untracked: []string{"x"}, Orphaned: []string{"y", "z"}}.Err()
	assert.EqualError(t, err, "lock manifest out of date: 0 mismatched, 1 untracked, 2 orphaned")
}
