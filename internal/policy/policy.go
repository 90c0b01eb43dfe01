// Package policy holds the per-platform command tables: which base commands may
// run at all, which of those need a rule validator, and the tunables those
// validators consult. A Policy is immutable once built and safe for concurrent use.
package policy

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/AgentShepherd/shellgate/internal/platform"
	"github.com/AgentShepherd/shellgate/internal/types"
)

// DefaultMaxWrapperDepth bounds recursive re-validation of wrapper payloads.
const DefaultMaxWrapperDepth = 3

// MaxWrapperDepthLimit is the largest depth a configuration may request.
const MaxWrapperDepthLimit = 10

// Options tunes a Policy beyond the built-in tables.
type Options struct {
	ExtraCommands     []string // additional allowlisted base names
	DevProcesses      []string // additional dev-process names for pkill/taskkill
	DevScriptPatterns []string // additional glob patterns for pkill -f
	MaxWrapperDepth   int      // 0 means DefaultMaxWrapperDepth
}

// Policy is the allow/extra-validation table set for one platform.
type Policy struct {
	platform     types.Platform
	allowed      map[string]struct{}
	extra        map[string]struct{}
	devProcesses map[string]struct{}
	protected    map[string]struct{}
	devScripts   []glob.Glob
	patterns     []string
	setupScripts []string
	maxDepth     int
}

// ForPlatform returns the built-in policy for p.
func ForPlatform(p types.Platform) *Policy {
	pol, err := New(p, Options{})
	if err != nil {
		// Built-in tables always compile.
		panic(err)
	}
	return pol
}

// New builds a policy for p with opts applied on top of the built-in tables.
func New(p types.Platform, opts Options) (*Policy, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown platform %q", p)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	allowed, extra := unixAllowed, unixExtra
	if p.IsWindows() {
		allowed, extra = windowsAllowed, windowsExtra
	}

	pol := &Policy{
		platform:     p,
		allowed:      toSet(allowed, withoutFamily(opts.ExtraCommands, otherFamily(p))),
		extra:        toSet(extra),
		devProcesses: toSet(defaultDevProcesses, opts.DevProcesses),
		protected:    toSet(protectedProcesses),
		setupScripts: platform.SetupScripts(p),
		maxDepth:     opts.MaxWrapperDepth,
	}
	if pol.maxDepth == 0 {
		pol.maxDepth = DefaultMaxWrapperDepth
	}

	pol.patterns = append(append([]string{}, defaultDevScriptPatterns...), opts.DevScriptPatterns...)
	for _, pattern := range pol.patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("dev script pattern %q: %w", pattern, err)
		}
		pol.devScripts = append(pol.devScripts, g)
	}

	return pol, nil
}

// Validate checks opts without building a policy.
func (o Options) Validate() error {
	never := toSet(neverAllow)
	for _, name := range o.ExtraCommands {
		n := normalizeName(name)
		if n == "" {
			return fmt.Errorf("extra command must not be empty")
		}
		if _, bad := never[n]; bad {
			return fmt.Errorf("extra command %q can never be allowlisted", name)
		}
		if strings.ContainsAny(strings.TrimSpace(name), `/\ `) {
			return fmt.Errorf("extra command %q must be a bare command name", name)
		}
	}
	if o.MaxWrapperDepth < 0 || o.MaxWrapperDepth > MaxWrapperDepthLimit {
		return fmt.Errorf("max wrapper depth must be 0-%d (got %d)", MaxWrapperDepthLimit, o.MaxWrapperDepth)
	}
	for _, pattern := range o.DevScriptPatterns {
		if _, err := glob.Compile(strings.ToLower(pattern)); err != nil {
			return fmt.Errorf("dev script pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Platform returns the platform this policy applies to.
func (p *Policy) Platform() types.Platform { return p.platform }

// AllowedCommands returns the sorted allowlist.
func (p *Policy) AllowedCommands() []string { return sortedKeys(p.allowed) }

// ExtraValidationCommands returns the sorted set of commands needing a rule validator.
func (p *Policy) ExtraValidationCommands() []string { return sortedKeys(p.extra) }

// IsAllowed reports whether base may run at all.
func (p *Policy) IsAllowed(base string) bool {
	_, ok := p.allowed[base]
	return ok
}

// RequiresValidation reports whether base must also pass a rule validator.
func (p *Policy) RequiresValidation(base string) bool {
	_, ok := p.extra[base]
	return ok
}

// IsDevProcess reports whether name (case-insensitive) may be terminated.
func (p *Policy) IsDevProcess(name string) bool {
	_, ok := p.devProcesses[normalizeName(name)]
	return ok
}

// IsProtectedProcess reports whether name must never be a kill target.
func (p *Policy) IsProtectedProcess(name string) bool {
	_, ok := p.protected[normalizeName(name)]
	return ok
}

// MatchesDevScript reports whether the final path component of word matches
// one of the dev-script patterns.
func (p *Policy) MatchesDevScript(word string) bool {
	base := strings.ToLower(path.Base(strings.ReplaceAll(word, `\`, "/")))
	for _, g := range p.devScripts {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// DevScriptPatterns returns the active dev-script glob patterns.
func (p *Policy) DevScriptPatterns() []string {
	return append([]string(nil), p.patterns...)
}

// SetupScripts returns the setup script filenames allowed on this platform.
func (p *Policy) SetupScripts() []string {
	return append([]string(nil), p.setupScripts...)
}

// IsSetupScript reports whether base is one of this platform's setup scripts.
func (p *Policy) IsSetupScript(base string) bool {
	for _, s := range p.setupScripts {
		if s == base {
			return true
		}
	}
	return false
}

// MaxWrapperDepth returns the wrapper recursion bound.
func (p *Policy) MaxWrapperDepth() int { return p.maxDepth }

// normalizeName lower-cases name and strips any path and .exe suffix.
func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndexAny(n, `/\`); i >= 0 {
		n = n[i+1:]
	}
	return strings.TrimSuffix(n, ".exe")
}

// otherFamily returns the commands exclusive to the platform family p is not in.
func otherFamily(p types.Platform) map[string]struct{} {
	if p.IsWindows() {
		return toSet(unixExtra, []string{"lsof", "pgrep", "rm", "ls", "cat"})
	}
	return toSet(windowsExtra, []string{"dir", "tasklist", "findstr"})
}

// withoutFamily drops names belonging to the other platform family so the two
// allowlists never merge through configuration.
func withoutFamily(names []string, family map[string]struct{}) []string {
	var out []string
	for _, n := range names {
		if _, skip := family[normalizeName(n)]; !skip {
			out = append(out, n)
		}
	}
	return out
}

func toSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, item := range list {
			if n := normalizeName(item); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
