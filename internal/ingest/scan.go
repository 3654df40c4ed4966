package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// File is one discovered input PDF.
type File struct {
	Path    string
	Name    string // path relative to the scanned root
	Size    int64
	HashHex string
	Err     error // set when the file could not be read
}

// DirStats summarizes a scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// ScanOptions controls directory enumeration.
type ScanOptions struct {
	Recursive  bool
	SkipHidden bool
}

// Scanner enumerates input PDFs.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Scan lists the PDFs under root sorted by name, hashing each one. Only an
// unreadable root is an error; per-file problems are reported on File.Err.
func (s *Scanner) Scan(ctx context.Context, root string, opts ScanOptions) ([]File, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, common.NewAppError(common.CodeInput, "input directory is required", common.ErrInvalidInput)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, stats, common.NewAppError(common.CodeInput, fmt.Sprintf("cannot read input directory %q", root), fmt.Errorf("%w: %v", common.ErrUnreadable, err))
	}
	if !info.IsDir() {
		return nil, stats, common.NewAppError(common.CodeInput, fmt.Sprintf("%q is not a directory", root), common.ErrInvalidInput)
	}

	var files []File
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			stats.Failed++
			files = append(files, File{Path: path, Name: rel(root, path), Err: err})
			return nil
		}
		if path == root {
			return nil
		}
		stats.Scanned++
		if opts.SkipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		f := File{Path: path, Name: rel(root, path)}
		f.Size, f.HashHex, f.Err = hashFile(path)
		if f.Err != nil {
			stats.Failed++
			s.logger.Warn("ingest.file.unreadable", "path", path, "error", f.Err)
		}
		files = append(files, f)
		return nil
	})
	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, stats, ctxErr
		}
		return nil, stats, common.NewAppError(common.CodeInput, fmt.Sprintf("cannot enumerate %q", root), fmt.Errorf("%w: %v", common.ErrUnreadable, walkErr))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	s.logger.Info("ingest.scan.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed,
	)
	return files, stats, nil
}

func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return n, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

func rel(root, path string) string {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(r)
}

// FileAt describes a single file outside a directory scan, as delivered by
// the watcher.
func FileAt(path string) File {
	f := File{Path: path, Name: filepath.Base(path)}
	f.Size, f.HashHex, f.Err = hashFile(path)
	return f
}
