package domain

import "slices"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// RoleSet is an ordered set of role names. Order is preserved so that the
// roles embedded in a token come out in the order they were assigned.
type RoleSet []string

// NewRoleSet builds a RoleSet from names, dropping blanks and repeats.
func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, 0, len(names))
	for _, n := range names {
		if n != "" && !set.Has(n) {
			set = append(set, n)
		}
	}
	return set
}

// Has reports whether role is a member of the set. Matching is exact.
func (s RoleSet) Has(role string) bool {
	return role != "" && slices.Contains(s, role)
}

// With returns the set with role appended when it is not already present.
// The receiver is never written to, even when it has spare capacity.
func (s RoleSet) With(role string) RoleSet {
	if role == "" || s.Has(role) {
		return s
	}
	return append(slices.Clip(s), role)
}
