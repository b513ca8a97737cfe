package security

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/otoshop/otoshop/internal/auth/domain"
)

// Access is what a rule requires of the caller.
type Access int

const (
	AccessPublic Access = iota
	AccessAuthenticated
	AccessRoles
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	case AccessRoles:
		return "roles"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// Rule maps request methods and path patterns to an access requirement.
// An empty Methods list matches every method.
//
// Pattern segments are literals, "*" or "{name}" for exactly one segment,
// and a trailing "**" for zero or more segments.
type Rule struct {
	Methods  []string
	Patterns []string
	Access   Access
	Roles    []domain.Role

	compiled [][]string
}

// Decision is the outcome of checking a principal against a rule.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

// Check decides whether p (nil when anonymous) satisfies the rule.
func (r Rule) Check(p *domain.Principal) Decision {
	if r.Access == AccessPublic {
		return Allow
	}
	if p == nil {
		return Unauthenticated
	}
	if r.Access == AccessRoles && !p.HasAnyRole(r.Roles...) {
		return Forbidden
	}
	return Allow
}

func (r Rule) String() string {
	methods := "*"
	if len(r.Methods) > 0 {
		methods = strings.Join(r.Methods, "|")
	}
	s := methods + " " + strings.Join(r.Patterns, ",") + " -> " + r.Access.String()
	if r.Access == AccessRoles {
		roles := make([]string, len(r.Roles))
		for i, role := range r.Roles {
			roles[i] = string(role)
		}
		s += "[" + strings.Join(roles, ",") + "]"
	}
	return s
}

func (r Rule) matchesMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

func (r Rule) matches(method string, segs []string) bool {
	if !r.matchesMethod(method) {
		return false
	}
	for _, pattern := range r.compiled {
		if matchSegments(pattern, segs) {
			return true
		}
	}
	return false
}

// RuleTable is an ordered list of rules; the first match wins and
// unmatched requests fall back to AccessAuthenticated. It is immutable
// once built.
type RuleTable struct {
	rules    []Rule
	fallback Rule
}

// NewRuleTable compiles rules in order.
func NewRuleTable(rules ...Rule) (*RuleTable, error) {
	t := &RuleTable{
		rules:    make([]Rule, 0, len(rules)),
		fallback: Rule{Patterns: []string{"/**"}, Access: AccessAuthenticated},
	}
	for i, r := range rules {
		if len(r.Patterns) == 0 {
			return nil, fmt.Errorf("rule %d: no patterns", i)
		}
		if r.Access == AccessRoles && len(r.Roles) == 0 {
			return nil, fmt.Errorf("rule %d: role access without roles", i)
		}
		r.compiled = make([][]string, len(r.Patterns))
		for j, p := range r.Patterns {
			segs, err := compilePattern(p)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			r.compiled[j] = segs
		}
		t.rules = append(t.rules, r)
	}
	return t, nil
}

// MustRuleTable is NewRuleTable that panics on a bad rule.
func MustRuleTable(rules ...Rule) *RuleTable {
	t, err := NewRuleTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Decide returns the first rule matching the request.
func (t *RuleTable) Decide(method, path string) Rule {
	segs := splitPath(path)
	for _, r := range t.rules {
		if r.matches(method, segs) {
			return r
		}
	}
	return t.fallback
}

// IsPublic reports whether the request needs no authentication.
func (t *RuleTable) IsPublic(method, path string) bool {
	return t.Decide(method, path).Access == AccessPublic
}

// Rules returns a copy of the ordered rules.
func (t *RuleTable) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

func compilePattern(p string) ([]string, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("pattern %q must start with /", p)
	}
	segs := splitPath(p)
	for i, s := range segs {
		if s == "**" && i != len(segs)-1 {
			return nil, fmt.Errorf("pattern %q: ** is only allowed last", p)
		}
	}
	return segs, nil
}

func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	segs := parts[:0]
	for _, s := range parts {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func matchSegments(pattern, segs []string) bool {
	for i, p := range pattern {
		if p == "**" {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if p == "*" || isVariable(p) {
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return len(pattern) == len(segs)
}

func isVariable(seg string) bool {
	return len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}'
}

// Rule constructors.

func Public(methods []string, patterns ...string) Rule {
	return Rule{Methods: methods, Patterns: patterns, Access: AccessPublic}
}

func Authenticated(methods []string, patterns ...string) Rule {
	return Rule{Methods: methods, Patterns: patterns, Access: AccessAuthenticated}
}

func HasAnyRole(roles []domain.Role, methods []string, patterns ...string) Rule {
	return Rule{Methods: methods, Patterns: patterns, Access: AccessRoles, Roles: roles}
}

// Methods is shorthand for a method list.
func Methods(m ...string) []string { return m }

var (
	get    = Methods(http.MethodGet)
	writes = Methods(http.MethodPost, http.MethodPut, http.MethodDelete)

	adminOnly   = []domain.Role{domain.RoleAdmin}
	adminOrUser = []domain.Role{domain.RoleAdmin, domain.RoleUser}
)

// DefaultRules is the dealership's access table. Order matters: specific
// /users routes come before the ADMIN catch-all for /users/**.
func DefaultRules() *RuleTable {
	return MustRuleTable(
		Public(get, "/swagger/**", "/livez", "/readyz", "/metrics"),
		Public(Methods(http.MethodPost), "/auth/**"),
		Public(get, "/home/**", "/meta/**", "/search/**"),

		Public(get, "/cars/**"),
		HasAnyRole(adminOnly, writes, "/cars/**"),
		Public(get, "/car-details/**"),
		HasAnyRole(adminOnly, writes, "/car-details/**"),
		Public(get, "/car-categories/**", "/car-brands/**"),
		HasAnyRole(adminOnly, writes, "/car-categories/**", "/car-brands/**"),

		Public(get, "/users/avatar/image/**"),
		HasAnyRole(adminOrUser, get, "/users/me"),
		Authenticated(Methods(http.MethodPut), "/users/me/password"),
		HasAnyRole(adminOrUser, get, "/users/username/{username}"),
		HasAnyRole(adminOnly, Methods(http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodGet), "/users/**"),

		HasAnyRole(adminOrUser, Methods(http.MethodPost, http.MethodGet), "/orders/**"),
		HasAnyRole(adminOnly, Methods(http.MethodPatch, http.MethodDelete), "/orders/**"),
		HasAnyRole(adminOrUser, Methods(http.MethodPost, http.MethodGet), "/payments/**"),
		HasAnyRole(adminOnly, Methods(http.MethodPatch, http.MethodDelete), "/payments/**"),

		Public(get, "/promotions/**"),
		HasAnyRole(adminOnly, writes, "/promotions/**"),
		Public(get, "/news/**"),
		HasAnyRole(adminOnly, Methods(http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete), "/news/**"),

		HasAnyRole(adminOnly, get, "/admin/**"),
	)
}
