package structdiff

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"verify-lock/internal/diff"
	"verify-lock/internal/lockerr"
	"verify-lock/internal/textutil"
)

// Outcome is the result of comparing two lock artifacts on disk.
type Outcome struct {
	Committed   string
	Regenerated string
	Differences []Difference
	// Patch is a unified diff of the raw files; empty when they are equal.
	Patch    string
	Oversize bool
}

// Equal reports whether the artifacts are semantically identical.
func (o Outcome) Equal() bool { return len(o.Differences) == 0 }

// Err returns nil when the artifacts are equal and a *MismatchError
// otherwise.
func (o Outcome) Err() error {
	if o.Equal() {
		return nil
	}
	return &MismatchError{Outcome: o}
}

// MismatchError reports that the committed lock drifted from the sources.
type MismatchError struct {
	Outcome Outcome
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s differs from the regenerated lock (%d difference(s))",
		e.Outcome.Committed, len(e.Outcome.Differences))
}

// CompareFiles decodes both artifacts and compares them. When they differ,
// a unified diff of the raw bytes is attached for the reader.
func CompareFiles(committedPath, regeneratedPath string, opt diff.Options) (Outcome, error) {
	ca, craw, err := decodeFile(committedPath)
	if err != nil {
		return Outcome{}, err
	}
	ra, rraw, err := decodeFile(regeneratedPath)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{
		Committed:   committedPath,
		Regenerated: regeneratedPath,
		Differences: Compare(ca, ra),
	}
	if !out.Equal() {
		out.Patch, out.Oversize = diff.Unified(committedPath, regeneratedPath, craw, rraw, opt)
	}
	return out, nil
}

func decodeFile(path string) (any, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &lockerr.IOError{Op: "read lock", Path: path, Err: err}
	}
	v, err := Decode(raw)
	if err != nil {
		return nil, nil, &lockerr.ParseError{Path: path, Reason: "invalid lock JSON", Err: err}
	}
	return v, raw, nil
}

// Decode parses a single JSON document, keeping numbers exact.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON document")
	}
	return v, nil
}

// Remediation is appended to every failing semantic report.
const Remediation = "The committed lock does not match the current sources. Regenerate it with the " +
	"lock tool, review the compatibility changes and commit the updated lock."

// Report renders o for humans.
func Report(o Outcome) string {
	var b strings.Builder
	if o.Equal() {
		fmt.Fprintf(&b, "%s matches the regenerated lock\n", o.Committed)
		return b.String()
	}
	fmt.Fprintf(&b, "lock check FAILED: %s differs from regenerated %s (%d difference(s))\n\n",
		o.Committed, o.Regenerated, len(o.Differences))
	for _, d := range o.Differences {
		fmt.Fprintf(&b, "  %s\n", d)
	}
	if o.Patch != "" {
		b.WriteString("\n")
		b.WriteString(textutil.EnsureTrailingLF(o.Patch))
	}
	b.WriteString("\n")
	b.WriteString(Remediation)
	b.WriteString("\n")
	return b.String()
}
