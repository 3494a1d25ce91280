package auth

import "strings"

// RBAC evaluation over claims. The effective role set is derived on every
// check and never cached.
//
// NOTE: role synthesis below is a pattern-matching approximation of the
// backend's authoritative group-to-permission mapping, which this frontend
// cannot see. It is NOT a security boundary: the backend re-checks every
// request, and these helpers only decide what UI to render and which pages
// to guard. Do not rely on them for authorization.

// AdminSubject is the reserved subject identifier that passes every role check.
const AdminSubject = "admin"

// RoleAdmin is the role synthesized for admin-scoped principals.
const RoleAdmin = "admin"

// adminPermissionPrefixes are permission-string prefixes (each ending in ":")
// that mark a principal as admin-scoped.
var adminPermissionPrefixes = []string{"admin:"}

// EffectiveRoles builds the synthesized role set for the given claims:
// the raw roles list, plus RoleAdmin when any permission carries an
// admin-scoped prefix.
func EffectiveRoles(c *Claims) map[string]struct{} {
	if c == nil {
		return map[string]struct{}{}
	}
	roles := make(map[string]struct{}, len(c.Roles)+1)
	for _, r := range c.Roles {
		if r != "" {
			roles[r] = struct{}{}
		}
	}
	if hasAdminScopedPermission(c.Permissions) {
		roles[RoleAdmin] = struct{}{}
	}
	return roles
}

func hasAdminScopedPermission(permissions []string) bool {
	for _, perm := range permissions {
		for _, prefix := range adminPermissionPrefixes {
			if strings.HasSuffix(prefix, ":") && strings.HasPrefix(perm, prefix) {
				return true
			}
		}
	}
	return false
}

// HasAnyRole reports whether the claims hold at least one of the required
// roles. The reserved admin subject passes unconditionally; an empty
// required list is vacuously satisfied.
func HasAnyRole(c *Claims, required []string) bool {
	if c == nil {
		return false
	}
	if c.Subject == AdminSubject {
		return true
	}
	if len(required) == 0 {
		return true
	}
	roles := EffectiveRoles(c)
	for _, r := range required {
		if _, ok := roles[r]; ok {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the claims hold every required role.
// An empty required list is vacuously true even for absent claims.
func HasAllRoles(c *Claims, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if c == nil {
		return false
	}
	if c.Subject == AdminSubject {
		return true
	}
	roles := EffectiveRoles(c)
	for _, r := range required {
		if _, ok := roles[r]; !ok {
			return false
		}
	}
	return true
}

// HasAnyGroup reports whether the claims belong to at least one required
// group. Group checks use the raw groups list with no synthesis.
func HasAnyGroup(c *Claims, required []string) bool {
	if c == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	groups := groupSet(c.Groups)
	for _, g := range required {
		if _, ok := groups[g]; ok {
			return true
		}
	}
	return false
}

// HasAllGroups reports whether the claims belong to every required group.
// An empty required list is vacuously true even for absent claims.
func HasAllGroups(c *Claims, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if c == nil {
		return false
	}
	groups := groupSet(c.Groups)
	for _, g := range required {
		if _, ok := groups[g]; !ok {
			return false
		}
	}
	return true
}

func groupSet(groups []string) map[string]struct{} {
	set := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g != "" {
			set[g] = struct{}{}
		}
	}
	return set
}
