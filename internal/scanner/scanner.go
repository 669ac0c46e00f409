// Package scanner finds program documents under a directory tree. It
// respects .ssaformignore files with gitignore-style patterns and picks
// each file's format from its extension.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lac-dcc/DCC888/pkg/loader"
)

// FileInfo represents information about a discovered program document.
type FileInfo struct {
	Path     string        // Relative path from root
	FullPath string        // Absolute path
	Format   loader.Format // Detected from extension
	Size     int64         // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	DefaultExcludes []string // Directory names never descended into
	IgnoreFileName  string   // Name of the ignore file (default: .ssaformignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:      true,
		IgnoreFileName:  ".ssaformignore",
		DefaultExcludes: []string{"node_modules", "vendor", "_examples"},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every program document below it in lexical
// order. A root that is a regular file is returned on its own, whatever
// its extension.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []FileInfo{{
			Path:     filepath.Base(absRoot),
			FullPath: absRoot,
			Format:   loader.FormatOf(absRoot),
			Size:     info.Size(),
		}}, nil
	}

	ignorePatterns, err := s.loadIgnorePatterns(absRoot)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPathSlash := filepath.ToSlash(relPath)

		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.isDefaultExcluded(d.Name()) || matchesIgnorePatterns(relPathSlash+"/", ignorePatterns) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnorePatterns(path)
			if err == nil {
				for _, p := range nested {
					ignorePatterns = append(ignorePatterns, p.under(relPathSlash))
				}
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		format, err := loader.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
		if err != nil {
			return nil
		}
		if matchesIgnorePatterns(relPathSlash, ignorePatterns) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     relPathSlash,
			FullPath: path,
			Format:   format,
			Size:     fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return files, nil
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnorePatterns loads ignore patterns from the ignore file in dir.
func (s *Scanner) loadIgnorePatterns(dir string) ([]IgnorePattern, error) {
	if s.opts.IgnoreFileName == "" {
		return nil, nil
	}
	file, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}

	return patterns, sc.Err()
}

// matchesIgnorePatterns applies patterns in order; a later negation
// re-includes a path an earlier pattern ignored.
func matchesIgnorePatterns(relPath string, patterns []IgnorePattern) bool {
	ignored := false
	for _, pattern := range patterns {
		if pattern.Match(relPath) {
			ignored = !pattern.IsNegation()
		}
	}
	return ignored
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
