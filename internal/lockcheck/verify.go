package lockcheck

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"verify-lock/internal/digest"
	"verify-lock/internal/lockerr"
	"verify-lock/internal/manifest"
	"verify-lock/internal/sortutil"
	"verify-lock/internal/walkwalk"
)

// Verify compares the files under opts.SourceDir with the manifest at
// opts.ManifestPath. It reads files only and never modifies either side.
//
// Errors are reserved for conditions that make the comparison impossible:
// a malformed manifest (*lockerr.ParseError), an unreadable manifest, source
// directory or source file (*lockerr.IOError), or a done context
// (lockerr.ErrCancelled).
func Verify(ctx context.Context, opts Options) (Result, error) {
	log := opts.logger().With(zap.String("source_dir", opts.SourceDir), zap.String("manifest", opts.ManifestPath))
	alg := opts.algorithm()

	if err := ctx.Err(); err != nil {
		return Result{}, lockerr.Cancelled(err)
	}
	man, err := manifest.ReadFile(opts.ManifestPath, opts.Exclusions)
	if err != nil {
		return Result{}, err
	}
	log.Debug("manifest loaded", zap.Int("entries", man.Len()), zap.Strings("excluded", opts.Exclusions.Names()))

	res := Result{Checked: man.Len()}
	orphanDigests := make(map[string]string)
	for _, e := range man.Sorted() {
		if err := ctx.Err(); err != nil {
			return Result{}, lockerr.Cancelled(err)
		}
		actual, found, err := hashSource(alg, opts.SourceDir, e.Name)
		if err != nil {
			return Result{}, err
		}
		switch {
		case !found:
			log.Debug("manifest entry has no source file", zap.String("file", e.Name))
			res.Orphaned = append(res.Orphaned, e.Name)
			orphanDigests[e.Name] = e.Digest
		case actual != e.Digest:
			log.Debug("digest mismatch", zap.String("file", e.Name),
				zap.String("expected", e.Digest), zap.String("actual", actual))
			res.Mismatched = append(res.Mismatched, Mismatch{Name: e.Name, Expected: e.Digest, Actual: actual})
		}
	}

	files, err := walkwalk.CollectFiles(ctx, walkwalk.Options{
		Root:      opts.SourceDir,
		Exts:      walkwalk.ExtSet(opts.Exts),
		Recursive: opts.Recursive,
	})
	if err != nil {
		return Result{}, err
	}
	untrackedDigests := make(map[string]string)
	for _, f := range files {
		if opts.Exclusions.Has(f.RelPath) {
			continue
		}
		if _, ok := man.Entries[f.RelPath]; ok {
			continue
		}
		res.Untracked = append(res.Untracked, f.RelPath)
		if len(orphanDigests) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, lockerr.Cancelled(err)
		}
		sum, err := digest.SumFile(alg, f.AbsPath)
		if err != nil {
			return Result{}, &lockerr.IOError{Op: "read source", Path: f.AbsPath, Err: err}
		}
		untrackedDigests[f.RelPath] = sum
	}
	res.Renamed = matchExactRenames(orphanDigests, untrackedDigests)

	log.Debug("lock check finished",
		zap.Int("checked", res.Checked),
		zap.Int("mismatched", len(res.Mismatched)),
		zap.Int("untracked", len(res.Untracked)),
		zap.Int("orphaned", len(res.Orphaned)))
	return res, nil
}

// hashSource digests the manifest-named file inside dir. found is false when
// the file does not exist.
func hashSource(alg digest.Algorithm, dir, name string) (sum string, found bool, err error) {
	path := filepath.Join(dir, filepath.FromSlash(name))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, &lockerr.IOError{Op: "open source", Path: path, Err: err}
	}
	defer f.Close()
	sum, err = digest.Sum(alg, f)
	if err != nil {
		return "", false, &lockerr.IOError{Op: "read source", Path: path, Err: err}
	}
	return sum, true, nil
}

// matchExactRenames pairs orphaned entries with untracked files of identical
// digest. Each side is used at most once; untracked names are visited in
// sorted order and take the lexicographically first orphan candidate.
func matchExactRenames(orphaned, untracked map[string]string) []Rename {
	if len(orphaned) == 0 || len(untracked) == 0 {
		return nil
	}
	byDigest := make(map[string][]string, len(orphaned))
	for name, sum := range orphaned {
		byDigest[sum] = append(byDigest[sum], name)
	}
	for sum := range byDigest {
		sort.Strings(byDigest[sum])
	}
	var renames []Rename
	for _, to := range sortutil.Keys(untracked) {
		sum := untracked[to]
		cands := byDigest[sum]
		if len(cands) == 0 {
			continue
		}
		byDigest[sum] = cands[1:]
		renames = append(renames, Rename{From: cands[0], To: to, Digest: sum})
	}
	sort.Slice(renames, func(i, j int) bool {
		if renames[i].From == renames[j].From {
			return renames[i].To < renames[j].To
		}
		return renames[i].From < renames[j].From
	})
	return renames
}
