package auth

import (
	"sort"
	"strings"
)

// ACL authorizes identities against required roles. Super roles (admin by
// default) pass every check.
type ACL struct {
	superRoles []string
}

// NewACL uses ["admin"] as the super-role list when none is given.
func NewACL(superRoles ...string) *ACL {
	if len(superRoles) == 0 {
		superRoles = []string{"admin"}
	}
	return &ACL{superRoles: superRoles}
}

// Authorize reports whether the identity satisfies the required roles. An
// empty requirement always passes; otherwise any matching role is enough.
func (a *ACL) Authorize(identity *Identity, requiredRoles []string) bool {
	if len(requiredRoles) == 0 {
		return true
	}
	if identity == nil {
		return false
	}
	for _, super := range a.superRoles {
		if identity.HasRole(super) {
			return true
		}
	}
	for _, role := range requiredRoles {
		if identity.HasRole(role) {
			return true
		}
	}
	return false
}

// MatchRule finds the required roles for a path using longest-prefix
// matching over the rule map, or nil when no rule applies.
func MatchRule(path string, rules map[string][]string) []string {
	prefixes := make([]string, 0, len(rules))
	for prefix := range rules {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, prefix := range prefixes {
		trimmed := strings.TrimRight(prefix, "/")
		if trimmed != "" && strings.HasPrefix(path, trimmed) {
			return rules[prefix]
		}
	}
	return nil
}
