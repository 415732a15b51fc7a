package selection

import (
	"slices"

	"github.com/Ning0612/aud/internal/domain"
)

// NameRules lists the ways a file can be named by an allow or deny rule
type NameRules struct {
	Names   []string `mapstructure:"names" yaml:"names,omitempty"`
	Pattern string   `mapstructure:"pattern" yaml:"pattern,omitempty"`
	Globs   []string `mapstructure:"globs" yaml:"globs,omitempty"`
}

// Clone returns a deep copy
func (r NameRules) Clone() NameRules {
	return NameRules{
		Names:   slices.Clone(r.Names),
		Pattern: r.Pattern,
		Globs:   slices.Clone(r.Globs),
	}
}

// Matcher compiles the rules
func (r NameRules) Matcher() (*NameMatcher, error) {
	return NewNameMatcher(r.Names, r.Pattern, r.Globs)
}

// Rules is the user-facing description of a selection
type Rules struct {
	Extensions []string  `mapstructure:"extensions" yaml:"extensions,omitempty"`
	Allow      NameRules `mapstructure:"allow" yaml:"allow,omitempty"`
	Deny       NameRules `mapstructure:"deny" yaml:"deny,omitempty"`
}

// Clone returns a deep copy with extensions normalised
func (r Rules) Clone() Rules {
	return Rules{
		Extensions: NormalizeExtensions(r.Extensions),
		Allow:      r.Allow.Clone(),
		Deny:       r.Deny.Clone(),
	}
}

// Policy compiles the rules into
//
//	AllowOverride(allow, Composite(Extension(exts), Deny(deny)))
//
// so an allowed name wins over both the extension set and the deny rules.
func (r Rules) Policy() (Policy, error) {
	allow, err := r.Allow.Matcher()
	if err != nil {
		return nil, err
	}
	deny, err := r.Deny.Matcher()
	if err != nil {
		return nil, err
	}

	return &AllowOverridePolicy{
		Allow: &AllowlistPolicy{Matcher: allow},
		Base: &CompositePolicy{Policies: []Policy{
			NewExtensionPolicy(r.Extensions),
			&DenylistPolicy{Matcher: deny},
		}},
	}, nil
}

// Validate reports the first rule that fails to compile
func (r Rules) Validate() error {
	_, err := r.Policy()
	return err
}

// NormalizeExtensions lower-cases, strips dots and removes duplicates and
// blanks, keeping first-seen order.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		n := domain.NormalizeExtension(e)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
