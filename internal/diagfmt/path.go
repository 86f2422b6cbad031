package diagfmt

import (
	"fmt"
	"path/filepath"

	"cmdforge/internal/source"
)

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual != 0 {
			return f.Path
		}
		if abs, err := filepath.Abs(filepath.FromSlash(f.Path)); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeRelative:
		if rel, err := filepath.Rel(fs.BaseDir(), filepath.FromSlash(f.Path)); err == nil && filepath.IsAbs(f.Path) {
			return filepath.ToSlash(rel)
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return fs.DisplayPath(id)
	}
}

// location renders path:line:col.
func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	start, _ := fs.Resolve(sp)
	return formatPathPos(formatPath(fs, sp.File, mode), start)
}

func formatPathPos(path string, lc source.LineCol) string {
	if lc.Line == 0 {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, lc.Line, lc.Col)
}
