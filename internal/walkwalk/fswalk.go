// Package walkwalk provides a deterministic, filterable walker that gathers
// the tracked source files of a lock-checked directory.
package walkwalk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"verify-lock/internal/lockerr"
)

// DefaultExt is the tracked extension when none is configured.
const DefaultExt = ".proto"

// FileInfo is a minimal, deterministic descriptor of a collected file.
type FileInfo struct {
	RelPath string // root-relative path with forward slashes; the manifest key
	AbsPath string // absolute filesystem path
	Size    int64
}

// Options selects which files CollectFiles returns.
type Options struct {
	Root string
	// Exts holds lowercase extensions including the dot. Empty means
	// DefaultExt.
	Exts map[string]struct{}
	// Recursive descends into subdirectories. Directories whose name starts
	// with '.' are always skipped.
	Recursive bool
}

type walkState struct {
	ctx   context.Context
	opt   Options
	root  string
	files []FileInfo
}

// CollectFiles walks opt.Root and returns matching regular files sorted by
// RelPath. Any unreadable directory or entry fails the walk with a
// *lockerr.IOError; a done context fails it with lockerr.ErrCancelled.
func CollectFiles(ctx context.Context, opt Options) ([]FileInfo, error) {
	root, err := filepath.Abs(opt.Root)
	if err != nil {
		return nil, &lockerr.IOError{Op: "resolve source dir", Path: opt.Root, Err: err}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, &lockerr.IOError{Op: "open source dir", Path: opt.Root, Err: err}
	}
	if !info.IsDir() {
		return nil, &lockerr.IOError{Op: "open source dir", Path: opt.Root, Err: fs.ErrInvalid}
	}
	// WalkDir does not descend into a root that is itself a symlink.
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return nil, &lockerr.IOError{Op: "resolve source dir", Path: opt.Root, Err: err}
	}
	if len(opt.Exts) == 0 {
		opt.Exts = map[string]struct{}{DefaultExt: {}}
	}
	ws := &walkState{ctx: ctx, opt: opt, root: root}
	if err := filepath.WalkDir(root, ws.visit); err != nil {
		return nil, err
	}
	sort.Slice(ws.files, func(i, j int) bool { return ws.files[i].RelPath < ws.files[j].RelPath })
	return ws.files, nil
}

func (ws *walkState) visit(path string, d fs.DirEntry, err error) error {
	if cerr := ws.ctx.Err(); cerr != nil {
		return lockerr.Cancelled(cerr)
	}
	if err != nil {
		return &lockerr.IOError{Op: "read source dir", Path: path, Err: err}
	}
	if d.IsDir() {
		if path == ws.root {
			return nil
		}
		if !ws.opt.Recursive || strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return nil
	}
	if !matchesExt(d.Name(), ws.opt.Exts) {
		return nil
	}
	info, err := resolveRegular(path, d)
	if err != nil {
		return &lockerr.IOError{Op: "stat source", Path: path, Err: err}
	}
	if info == nil {
		return nil
	}
	rel, err := filepath.Rel(ws.root, path)
	if err != nil {
		return &lockerr.IOError{Op: "relativize source", Path: path, Err: err}
	}
	ws.files = append(ws.files, FileInfo{
		RelPath: filepath.ToSlash(rel),
		AbsPath: path,
		Size:    info.Size(),
	})
	return nil
}

// resolveRegular returns the FileInfo of a regular file, following a
// symlink once. It returns (nil, nil) for anything else (sockets, dangling
// links pointing at directories, ...).
func resolveRegular(path string, d fs.DirEntry) (fs.FileInfo, error) {
	var (
		info fs.FileInfo
		err  error
	)
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = d.Info()
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	return info, nil
}

func matchesExt(name string, exts map[string]struct{}) bool {
	_, ok := exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ExtSet builds the extension set used by Options.Exts, normalizing case and
// adding a missing leading dot.
func ExtSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		m[v] = struct{}{}
	}
	return m
}
