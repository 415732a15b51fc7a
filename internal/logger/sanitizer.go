package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Sanitizer keeps user-identifying paths out of diagnostic logs. Paths
// under the current user's home directory are shortened to "~", other
// users' home directories are masked.
//
// Only string and error values are rewritten; other argument types are
// logged as-is.
type Sanitizer struct {
	mu    sync.RWMutex
	home  string
	rules []SanitizeRule
}

// SanitizeRule is a single rewrite
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewSanitizer creates a sanitizer for the current user
func NewSanitizer() *Sanitizer {
	home, _ := os.UserHomeDir()
	return NewSanitizerForHome(home)
}

// NewSanitizerForHome creates a sanitizer that shortens paths under home
func NewSanitizerForHome(home string) *Sanitizer {
	if home != "" {
		home = filepath.Clean(home)
	}
	return &Sanitizer{home: home, rules: defaultSanitizeRules()}
}

func defaultSanitizeRules() []SanitizeRule {
	return []SanitizeRule{
		{regexp.MustCompile(`(?i)[A-Z]:\\Users\\[^\\\s]+`), `***:\Users\***`},
		{regexp.MustCompile(`/home/[^/\s]+`), "/home/***"},
		{regexp.MustCompile(`/Users/[^/\s]+`), "/Users/***"},
	}
}

// Sanitize rewrites a single string
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := input
	if s.home != "" && s.home != string(filepath.Separator) {
		result = strings.ReplaceAll(result, s.home, "~")
	}
	for _, rule := range s.rules {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// SanitizeArgs rewrites the string and error values of key-value args
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 1; i < len(result); i += 2 {
		switch v := result[i].(type) {
		case string:
			result[i] = s.Sanitize(v)
		case error:
			result[i] = s.Sanitize(v.Error())
		case []string:
			masked := make([]string, len(v))
			for j, item := range v {
				masked[j] = s.Sanitize(item)
			}
			result[i] = masked
		}
	}

	return result
}

// AddRule appends a custom rewrite
func (s *Sanitizer) AddRule(pattern string, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, SanitizeRule{Pattern: re, Replacement: replacement})
	return nil
}
