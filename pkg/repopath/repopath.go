// Package repopath models repository-relative file paths as comparable
// values. Two paths are equal exactly when their component sequences are
// equal, no matter which constructor built them, and equal paths hash
// identically, so RepoPath is safe to use as a map key.
package repopath

import (
	"fmt"
	"strings"
)

// RepoPath is a repository-relative path: an ordered, slash-joined sequence
// of non-empty components. The zero value is the repository root.
type RepoPath struct {
	p string
}

// Root is the repository root path (no components).
var Root = RepoPath{}

// Parse builds a RepoPath from a slash-separated string. Leading or trailing
// slashes, empty components, "." and ".." are rejected.
func Parse(s string) (RepoPath, error) {
	if s == "" {
		return Root, nil
	}
	return FromComponents(strings.Split(s, "/"))
}

// FromComponents builds a RepoPath from individual components.
func FromComponents(components []string) (RepoPath, error) {
	for _, c := range components {
		switch {
		case c == "":
			return RepoPath{}, fmt.Errorf("repo path: empty component in %q", strings.Join(components, "/"))
		case c == "." || c == "..":
			return RepoPath{}, fmt.Errorf("repo path: relative component %q not allowed", c)
		case strings.ContainsRune(c, '/'):
			return RepoPath{}, fmt.Errorf("repo path: component %q contains a slash", c)
		}
	}
	return RepoPath{p: strings.Join(components, "/")}, nil
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(s string) RepoPath {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the slash-joined form. The root renders as "".
func (p RepoPath) String() string { return p.p }

// IsRoot reports whether p is the repository root.
func (p RepoPath) IsRoot() bool { return p.p == "" }

// Components returns the path components, nil for the root.
func (p RepoPath) Components() []string {
	if p.p == "" {
		return nil
	}
	return strings.Split(p.p, "/")
}

// Base returns the final component, "" for the root.
func (p RepoPath) Base() string {
	if p.p == "" {
		return ""
	}
	if i := strings.LastIndexByte(p.p, '/'); i >= 0 {
		return p.p[i+1:]
	}
	return p.p
}

// Join appends one component.
func (p RepoPath) Join(component string) (RepoPath, error) {
	joined, err := FromComponents([]string{component})
	if err != nil {
		return RepoPath{}, err
	}
	if p.p == "" {
		return joined, nil
	}
	return RepoPath{p: p.p + "/" + joined.p}, nil
}
