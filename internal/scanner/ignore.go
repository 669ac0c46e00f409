package scanner

import (
	"path"
	"strings"
)

// IgnorePattern represents a single gitignore-style pattern.
type IgnorePattern struct {
	isNegation  bool // !pattern
	isDirectory bool // pattern/
	isAnchored  bool // /pattern, or any pattern with an inner slash
	base        string
	segments    []string
}

// ParseIgnorePattern parses a gitignore-style pattern string.
func ParseIgnorePattern(pattern string) IgnorePattern {
	var p IgnorePattern

	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.isDirectory = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.isAnchored = true
		pattern = pattern[1:]
	} else if strings.Contains(pattern, "/") {
		p.isAnchored = true
	}

	p.segments = strings.Split(pattern, "/")
	return p
}

// under returns the pattern as read from an ignore file in directory dir.
func (p IgnorePattern) under(dir string) IgnorePattern {
	p.base = dir
	return p
}

// Match reports whether relPath matches the pattern. Directory paths carry
// a trailing slash.
func (p IgnorePattern) Match(relPath string) bool {
	isDir := strings.HasSuffix(relPath, "/")
	relPath = strings.TrimSuffix(relPath, "/")

	if p.base != "" {
		if !strings.HasPrefix(relPath, p.base+"/") {
			return false
		}
		relPath = strings.TrimPrefix(relPath, p.base+"/")
	}
	if p.isDirectory && !isDir {
		return false
	}

	pathSegs := strings.Split(relPath, "/")
	if p.isAnchored {
		return matchSegments(p.segments, pathSegs)
	}
	for start := range pathSegs {
		if matchSegments(p.segments, pathSegs[start:]) {
			return true
		}
	}
	return false
}

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool {
	return p.isNegation
}

// matchSegments matches pattern segments against a whole path; "**"
// matches any number of segments.
func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pattern[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if ok, err := path.Match(pattern[0], segs[0]); err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segs[1:])
}
