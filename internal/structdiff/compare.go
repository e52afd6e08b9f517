package structdiff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Kind classifies a single difference.
type Kind string

const (
	// Added: present only in the regenerated artifact.
	Added Kind = "added"
	// Removed: present only in the committed artifact.
	Removed Kind = "removed"
	// Changed: same location, different scalar or type.
	Changed Kind = "changed"
	// Repetition: an array element occurs a different number of times.
	Repetition Kind = "repetition"
)

// Difference is one structural discrepancy. Path addresses the location in
// the committed document ($ is the root).
type Difference struct {
	Path             string `json:"path"`
	Kind             Kind   `json:"kind"`
	Committed        any    `json:"committed,omitempty"`
	Regenerated      any    `json:"regenerated,omitempty"`
	CommittedCount   int    `json:"committedCount,omitempty"`
	RegeneratedCount int    `json:"regeneratedCount,omitempty"`
}

func (d Difference) String() string {
	switch d.Kind {
	case Added:
		return fmt.Sprintf("%s: added %s", d.Path, compact(d.Regenerated))
	case Removed:
		return fmt.Sprintf("%s: removed %s", d.Path, compact(d.Committed))
	case Repetition:
		return fmt.Sprintf("%s: %s repeated %d time(s), now %d",
			d.Path, compact(d.Committed), d.CommittedCount, d.RegeneratedCount)
	default:
		return fmt.Sprintf("%s: %s -> %s", d.Path, compact(d.Committed), compact(d.Regenerated))
	}
}

// Compare returns the differences between two decoded JSON values, sorted by
// path then kind. Values are expected to come from encoding/json (maps,
// slices, strings, json.Number or float64, bool, nil).
func Compare(committed, regenerated any) []Difference {
	var out []Difference
	compareAt("$", committed, regenerated, &out)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func compareAt(path string, a, b any, out *[]Difference) {
	switch av := a.(type) {
	case map[string]any:
		if bv, ok := b.(map[string]any); ok {
			compareObjects(path, av, bv, out)
			return
		}
	case []any:
		if bv, ok := b.([]any); ok {
			compareArrays(path, av, bv, out)
			return
		}
	}
	if canonical(a) != canonical(b) {
		*out = append(*out, Difference{Path: path, Kind: Changed, Committed: a, Regenerated: b})
	}
}

func compareObjects(path string, a, b map[string]any, out *[]Difference) {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := childPath(path, k)
		av, inA := a[k]
		bv, inB := b[k]
		switch {
		case !inB:
			*out = append(*out, Difference{Path: p, Kind: Removed, Committed: av})
		case !inA:
			*out = append(*out, Difference{Path: p, Kind: Added, Regenerated: bv})
		default:
			compareAt(p, av, bv, out)
		}
	}
}

type bucket struct {
	value  any
	firstA int
	firstB int
	countA int
	countB int
}

// compareArrays treats both arrays as multisets of canonical values.
func compareArrays(path string, a, b []any, out *[]Difference) {
	buckets := make(map[string]*bucket)
	var order []string
	add := func(v any, idx int, fromA bool) {
		key := canonical(v)
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{value: v, firstA: -1, firstB: -1}
			buckets[key] = bk
			order = append(order, key)
		}
		if fromA {
			if bk.firstA < 0 {
				bk.firstA = idx
			}
			bk.countA++
		} else {
			if bk.firstB < 0 {
				bk.firstB = idx
			}
			bk.countB++
		}
	}
	for i, v := range a {
		add(v, i, true)
	}
	for i, v := range b {
		add(v, i, false)
	}
	for _, key := range order {
		bk := buckets[key]
		switch {
		case bk.countB == 0:
			*out = append(*out, Difference{Path: indexPath(path, bk.firstA), Kind: Removed, Committed: bk.value})
		case bk.countA == 0:
			*out = append(*out, Difference{Path: indexPath(path, bk.firstB), Kind: Added, Regenerated: bk.value})
		case bk.countA != bk.countB:
			*out = append(*out, Difference{
				Path:             indexPath(path, bk.firstA),
				Kind:             Repetition,
				Committed:        bk.value,
				Regenerated:      bk.value,
				CommittedCount:   bk.countA,
				RegeneratedCount: bk.countB,
			})
		}
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func childPath(parent, key string) string {
	if identRe.MatchString(key) {
		return parent + "." + key
	}
	return fmt.Sprintf("%s[%q]", parent, key)
}

func indexPath(parent string, idx int) string {
	return fmt.Sprintf("%s[%d]", parent, idx)
}

// canonical encodes v with sorted object keys and sorted array elements, so
// that two values equal up to ordering share one encoding.
func canonical(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch tv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeScalar(b, k)
			b.WriteByte(':')
			writeCanonical(b, tv[k])
		}
		b.WriteByte('}')
	case []any:
		elems := make([]string, len(tv))
		for i, e := range tv {
			elems[i] = canonical(e)
		}
		sort.Strings(elems)
		b.WriteByte('[')
		b.WriteString(strings.Join(elems, ","))
		b.WriteByte(']')
	case json.Number:
		b.WriteString(normalizeNumber(tv))
	default:
		writeScalar(b, tv)
	}
}

func writeScalar(b *strings.Builder, v any) {
	enc, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(b, "%#v", v)
		return
	}
	b.Write(enc)
}

// normalizeNumber makes 1, 1.0 and 1e0 compare equal while keeping large
// integers exact. Integral values in int64 range print as integers.
func normalizeNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return fmt.Sprintf("%d", i)
	}
	if f, err := n.Float64(); err == nil {
		// 2^63 is exactly representable; int64 covers [-2^63, 2^63).
		if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%g", f)
	}
	return n.String()
}

func compact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	s := strings.TrimSpace(buf.String())
	const maxLen = 120
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
