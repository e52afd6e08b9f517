// Package manifest reads and writes the committed hash manifest that pins the
// content of every tracked source file.
//
// Format (one entry per line, order irrelevant):
//
//	<64-hex-digest> <filename>
//
// Fields are whitespace separated, so files written by `sha256sum` load
// unchanged. Blank lines and lines starting with '#' are ignored.
//
// The checker only ever reads a manifest. WriteFile exists for the
// maintainer-side generator and always writes atomically.
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"verify-lock/internal/digest"
	"verify-lock/internal/lockerr"
	"verify-lock/internal/sortutil"
)

// DefaultName is the conventional manifest file name next to the sources.
const DefaultName = "proto.sum"

// Entry is one tracked file.
type Entry struct {
	Name   string
	Digest string
}

// Manifest maps tracked file names to their expected digests.
type Manifest struct {
	Entries map[string]string
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{Entries: make(map[string]string)}
}

// Names returns the tracked names sorted lexicographically.
func (m *Manifest) Names() []string {
	return sortutil.Keys(m.Entries)
}

// Sorted returns the entries ordered by name.
func (m *Manifest) Sorted() []Entry {
	out := make([]Entry, 0, len(m.Entries))
	for _, n := range m.Names() {
		out = append(out, Entry{Name: n, Digest: m.Entries[n]})
	}
	return out
}

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.Entries) }

// ReadFile loads the manifest at path, dropping any entry named in exclude.
func ReadFile(path string, exclude map[string]struct{}) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &lockerr.IOError{Op: "open manifest", Path: path, Err: err}
	}
	defer f.Close()
	return Parse(f, path, exclude)
}

// Parse decodes manifest lines from r. path is used only in error messages.
// The first malformed line aborts parsing with a *lockerr.ParseError.
func Parse(r io.Reader, path string, exclude map[string]struct{}) (*Manifest, error) {
	m := New()
	s := bufio.NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		raw := s.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sum, name, ok := splitEntry(line)
		if !ok {
			return nil, &lockerr.ParseError{Path: path, Line: lineNo, Text: raw,
				Reason: "want \"<digest> <filename>\""}
		}
		if !digest.IsHex(sum) {
			return nil, &lockerr.ParseError{Path: path, Line: lineNo, Text: raw,
				Reason: fmt.Sprintf("digest must be %d lowercase hex chars", digest.HexLen)}
		}
		name = CleanName(name)
		if name == "." || !filepath.IsLocal(filepath.FromSlash(name)) {
			return nil, &lockerr.ParseError{Path: path, Line: lineNo, Text: raw,
				Reason: "filename must be relative to the source dir"}
		}
		if _, dup := m.Entries[name]; dup {
			return nil, &lockerr.ParseError{Path: path, Line: lineNo, Text: raw,
				Reason: "duplicate entry for " + name}
		}
		if _, skip := exclude[name]; skip {
			continue
		}
		m.Entries[name] = sum
	}
	if err := s.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &lockerr.ParseError{Path: path, Line: lineNo + 1, Reason: "line too long", Err: err}
		}
		return nil, &lockerr.IOError{Op: "read manifest", Path: path, Err: err}
	}
	return m, nil
}

// splitEntry splits a trimmed line at its first whitespace run. The rest of
// the line is the name, so names may contain spaces as in sha256sum output.
func splitEntry(line string) (sum, name string, ok bool) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return "", "", false
	}
	sum, name = line[:i], strings.TrimLeft(line[i:], " \t")
	return sum, name, name != ""
}

// CleanName turns a manifest or exclusion name into the walker's key form:
// forward slashes, no "./" prefix, no redundant separators.
func CleanName(name string) string {
	return path.Clean(filepath.ToSlash(name))
}

// Format writes the manifest sorted by name, two spaces between digest and
// name.
func (m *Manifest) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.Sorted() {
		if _, err := fmt.Fprintf(bw, "%s  %s\n", e.Digest, e.Name); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the manifest atomically: the content goes to a temp file
// in the target directory which is then renamed over path.
func (m *Manifest) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := m.Format(&buf); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &lockerr.IOError{Op: "create manifest dir", Path: dir, Err: err}
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return &lockerr.IOError{Op: "create manifest", Path: path, Err: err}
	}
	tmp := f.Name()
	fail := func(op string, err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return &lockerr.IOError{Op: op, Path: path, Err: err}
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fail("write manifest", err)
	}
	if err := f.Sync(); err != nil {
		return fail("sync manifest", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return &lockerr.IOError{Op: "close manifest", Path: path, Err: err}
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return &lockerr.IOError{Op: "chmod manifest", Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &lockerr.IOError{Op: "rename manifest", Path: path, Err: err}
	}
	return nil
}
