package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/fitpaper/pkg/config"
	"github.com/panbanda/fitpaper/pkg/dataset"
)

// Scanner finds dataset files in a directory tree.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
	// base is the directory gitignore patterns are relative to.
	base string
}

// NewScanner creates a new dataset file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns combines config patterns with .gitignore files.
// Config patterns use gitignore syntax.
func (s *Scanner) loadExcludePatterns(root string) {
	s.base = root
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			s.base = gitRoot
		}
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(s.base), nil); err == nil {
			patterns = append(patterns, gitPatterns...)
		}
	}

	s.matchers = nil
	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if isDir && slices.Contains(s.config.Exclude.Dirs, filepath.Base(path)) {
		return true
	}
	rel, err := filepath.Rel(s.base, path)
	if err != nil {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans root for dataset files, in lexical order,
// returning absolute paths. Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == absRoot {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(path, false) || !dataset.IsDatasetFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// ScanPaths expands every path: files are kept when they look like
// datasets and directories are scanned recursively.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		if !info.IsDir() {
			if !dataset.IsDatasetFile(path) {
				return nil, fmt.Errorf("%s: %w", path, dataset.ErrUnsupportedFormat)
			}
			files = append(files, path)
			continue
		}

		found, err := s.ScanDir(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
