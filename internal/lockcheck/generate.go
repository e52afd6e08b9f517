package lockcheck

import (
	"context"

	"go.uber.org/zap"

	"verify-lock/internal/digest"
	"verify-lock/internal/lockerr"
	"verify-lock/internal/manifest"
	"verify-lock/internal/walkwalk"
)

// BuildManifest digests every tracked, non-excluded file under
// opts.SourceDir. opts.ManifestPath is ignored. Verify run against the
// result of BuildManifest over unchanged sources is always consistent.
func BuildManifest(ctx context.Context, opts Options) (*manifest.Manifest, error) {
	log := opts.logger()
	files, err := walkwalk.CollectFiles(ctx, walkwalk.Options{
		Root:      opts.SourceDir,
		Exts:      walkwalk.ExtSet(opts.Exts),
		Recursive: opts.Recursive,
	})
	if err != nil {
		return nil, err
	}
	m := manifest.New()
	for _, f := range files {
		if opts.Exclusions.Has(f.RelPath) {
			log.Debug("skipping excluded file", zap.String("file", f.RelPath))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, lockerr.Cancelled(err)
		}
		sum, err := digest.SumFile(opts.algorithm(), f.AbsPath)
		if err != nil {
			return nil, &lockerr.IOError{Op: "read source", Path: f.AbsPath, Err: err}
		}
		m.Entries[f.RelPath] = sum
	}
	log.Debug("manifest built", zap.Int("entries", m.Len()))
	return m, nil
}
