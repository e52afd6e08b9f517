package lockcheck

import (
	"fmt"
	"strings"
)

// Remediation is appended to every failing report.
const Remediation = "The lock manifest is out of date. Regenerate it with gen-lock " +
	"(see `gen-lock --help`), review the changes for compatibility and commit the updated manifest."

// Report renders r for humans. It is pure formatting.
func Report(r Result) string {
	var b strings.Builder
	if r.Consistent() {
		fmt.Fprintf(&b, "lock manifest is up to date (%d files checked)\n", r.Checked)
		return b.String()
	}

	fmt.Fprintf(&b, "lock check FAILED: %d problem(s)\n", r.Problems())
	if len(r.Mismatched) > 0 {
		b.WriteString("\nChanged since the manifest was generated:\n")
		for _, m := range r.Mismatched {
			fmt.Fprintf(&b, "  %s\n", m.Name)
			fmt.Fprintf(&b, "    expected: %s\n", m.Expected)
			fmt.Fprintf(&b, "    actual:   %s\n", m.Actual)
		}
	}
	if len(r.Untracked) > 0 {
		b.WriteString("\nUntracked (no manifest entry):\n")
		for _, n := range r.Untracked {
			fmt.Fprintf(&b, "  %s\n", n)
		}
	}
	if len(r.Orphaned) > 0 {
		b.WriteString("\nOrphaned (manifest entry without source file):\n")
		for _, n := range r.Orphaned {
			fmt.Fprintf(&b, "  %s\n", n)
		}
	}
	if len(r.Renamed) > 0 {
		b.WriteString("\nLikely renames (identical content):\n")
		for _, rn := range r.Renamed {
			fmt.Fprintf(&b, "  %s -> %s\n", rn.From, rn.To)
		}
	}
	b.WriteString("\n")
	b.WriteString(Remediation)
	b.WriteString("\n")
	return b.String()
}
