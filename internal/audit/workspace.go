package audit

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Workspace scan limits
const (
	DefaultScanDepth = 3
	DefaultScanLimit = 500
	DefaultScanTime  = 2 * time.Second
)

// Workspace lists the catalogs and documents found under the sandbox
// directory, relative to it
type Workspace struct {
	Directory string   `json:"directory"`
	Catalogs  []string `json:"catalogs"`
	Documents []string `json:"documents"`
	Truncated bool     `json:"truncated,omitempty"`
}

// ScanWorkspace walks the sandbox directory up to DefaultScanDepth levels,
// skipping hidden entries and symlinks. The walk stops early at
// DefaultScanLimit files, after DefaultScanTime, or when ctx is done.
func (s *Service) ScanWorkspace(ctx context.Context) (*Workspace, error) {
	root := s.paths.Directory()
	ws := &Workspace{Directory: root, Catalogs: []string{}, Documents: []string{}}
	start := time.Now()
	found := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || d.Type()&fs.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if strings.Count(rel, string(filepath.Separator))+1 >= DefaultScanDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if found >= DefaultScanLimit || time.Since(start) > DefaultScanTime {
			ws.Truncated = true
			return filepath.SkipAll
		}

		switch strings.ToLower(filepath.Ext(name)) {
		case ".json", ".yaml", ".yml":
			ws.Catalogs = append(ws.Catalogs, rel)
			found++
		case ".pdf":
			ws.Documents = append(ws.Documents, rel)
			found++
		}
		return nil
	})
	if err != nil {
		return ws, err
	}

	sort.Strings(ws.Catalogs)
	sort.Strings(ws.Documents)
	return ws, nil
}
