// Package selection decides which files of a directory take part in a plan.
package selection

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Ning0612/aud/internal/domain"
)

// Policy decides whether a file belongs to the selection.
// Implementations are pure and total.
type Policy interface {
	Include(f domain.File) bool
}

// PolicyFunc adapts a function to the Policy interface
type PolicyFunc func(f domain.File) bool

func (fn PolicyFunc) Include(f domain.File) bool { return fn(f) }

// ExtensionPolicy includes files whose extension is in the set.
// An empty set matches nothing.
type ExtensionPolicy struct {
	exts map[string]struct{}
}

// NewExtensionPolicy normalises every extension to lower case without dots
func NewExtensionPolicy(exts []string) *ExtensionPolicy {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if n := domain.NormalizeExtension(e); n != "" {
			set[n] = struct{}{}
		}
	}
	return &ExtensionPolicy{exts: set}
}

func (p *ExtensionPolicy) Include(f domain.File) bool {
	_, ok := p.exts[f.Extension()]
	return ok
}

// NameMatcher matches a file name against exact names, an anchored
// regular expression and glob patterns.
type NameMatcher struct {
	names   map[string]struct{}
	pattern *regexp.Regexp
	globs   []string
}

// NewNameMatcher builds a matcher. The pattern is anchored at the start of
// the name; an empty pattern never matches. Invalid patterns or globs
// return an error wrapping domain.ErrInvalidPattern.
func NewNameMatcher(names []string, pattern string, globs []string) (*NameMatcher, error) {
	m := &NameMatcher{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		m.names[n] = struct{}{}
	}

	if pattern != "" {
		re, err := compileAnchored(pattern)
		if err != nil {
			return nil, err
		}
		m.pattern = re
	}

	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, &PatternError{Pattern: g, Err: doublestar.ErrBadPattern}
		}
		m.globs = append(m.globs, g)
	}

	return m, nil
}

// Match reports whether name is listed, matches the pattern as a prefix,
// or matches any glob.
func (m *NameMatcher) Match(name string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.names[name]; ok {
		return true
	}
	if m.pattern != nil && m.pattern.MatchString(name) {
		return true
	}
	for _, g := range m.globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher can never match
func (m *NameMatcher) Empty() bool {
	return m == nil || (len(m.names) == 0 && m.pattern == nil && len(m.globs) == 0)
}

// AllowlistPolicy includes files whose name matches the allow rules
type AllowlistPolicy struct {
	Matcher *NameMatcher
}

func (p *AllowlistPolicy) Include(f domain.File) bool {
	return p.Matcher.Match(f.Name())
}

// DenylistPolicy includes files whose name does NOT match the deny rules
type DenylistPolicy struct {
	Matcher *NameMatcher
}

func (p *DenylistPolicy) Include(f domain.File) bool {
	return !p.Matcher.Match(f.Name())
}

// CompositePolicy includes a file only if every member includes it.
// With no members it includes everything.
type CompositePolicy struct {
	Policies []Policy
}

func (p *CompositePolicy) Include(f domain.File) bool {
	for _, member := range p.Policies {
		if !member.Include(f) {
			return false
		}
	}
	return true
}

// AllowOverridePolicy includes a file if Allow includes it; otherwise Base decides
type AllowOverridePolicy struct {
	Allow Policy
	Base  Policy
}

func (p *AllowOverridePolicy) Include(f domain.File) bool {
	if p.Allow.Include(f) {
		return true
	}
	return p.Base.Include(f)
}

// PatternError reports a rule that failed to compile
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() []error {
	return []error{domain.ErrInvalidPattern, e.Err}
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		// report the error against the pattern as the user wrote it
		if _, rawErr := regexp.Compile(pattern); rawErr != nil {
			err = rawErr
		}
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}
