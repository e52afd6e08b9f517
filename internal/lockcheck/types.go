package lockcheck

import (
	"fmt"

	"go.uber.org/zap"

	"verify-lock/internal/digest"
	"verify-lock/internal/manifest"
	"verify-lock/internal/sortutil"
)

// Exclusions is the set of file names exempt from checking. Names are
// compared against manifest keys, i.e. paths relative to the source dir.
type Exclusions map[string]struct{}

// NewExclusions builds a set from names, ignoring empty strings. Names are
// cleaned like manifest keys, so "./legacy.proto" excludes "legacy.proto".
func NewExclusions(names ...string) Exclusions {
	ex := make(Exclusions, len(names))
	for _, n := range names {
		if n != "" {
			ex[manifest.CleanName(n)] = struct{}{}
		}
	}
	return ex
}

// Has reports whether name is excluded.
func (ex Exclusions) Has(name string) bool {
	_, ok := ex[name]
	return ok
}

// Names returns the excluded names sorted.
func (ex Exclusions) Names() []string {
	return sortutil.Keys(ex)
}

// Options configures one Verify call.
type Options struct {
	SourceDir    string
	ManifestPath string
	Exclusions   Exclusions
	// Exts lists tracked extensions (".proto" when empty).
	Exts []string
	// Digest selects the hash algorithm used by the manifest.
	Digest digest.Algorithm
	// Recursive also tracks files in subdirectories.
	Recursive bool
	Logger    *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) algorithm() digest.Algorithm {
	if o.Digest == "" {
		return digest.Default
	}
	return o.Digest
}

// Mismatch is a tracked file whose content no longer matches the manifest.
type Mismatch struct {
	Name     string `json:"name"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Rename pairs an orphaned manifest entry with an untracked file carrying the
// same digest. It is a hint only; both names stay in Orphaned and Untracked.
type Rename struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Digest string `json:"digest"`
}

// Result is the outcome of a check. All lists are sorted by name.
type Result struct {
	// Checked is the number of manifest entries compared.
	Checked    int        `json:"checked"`
	Mismatched []Mismatch `json:"mismatched"`
	Untracked  []string   `json:"untracked"`
	Orphaned   []string   `json:"orphaned"`
	Renamed    []Rename   `json:"renamed,omitempty"`
}

// Consistent reports whether the sources match the manifest exactly.
func (r Result) Consistent() bool {
	return len(r.Mismatched) == 0 && len(r.Untracked) == 0 && len(r.Orphaned) == 0
}

// Problems returns the number of offending files.
func (r Result) Problems() int {
	return len(r.Mismatched) + len(r.Untracked) + len(r.Orphaned)
}

// Err returns nil for a consistent result and an *InconsistentLockError
// otherwise.
func (r Result) Err() error {
	if r.Consistent() {
		return nil
	}
	return &InconsistentLockError{Result: r}
}

// InconsistentLockError is the designed failure of the check: the sources
// drifted from the manifest.
type InconsistentLockError struct {
	Result Result
}

func (e *InconsistentLockError) Error() string {
	r := e.Result
	return fmt.Sprintf("lock manifest out of date: %d mismatched, %d untracked, %d orphaned",
		len(r.Mismatched), len(r.Untracked), len(r.Orphaned))
}
