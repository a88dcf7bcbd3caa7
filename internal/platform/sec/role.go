// Copyright (c) 2026 Mercato. All rights reserved.
// Author: platform@mercato.shop

package sec

import "fmt"

// # User Roles

// Role represents the authorization level granted to an account.
//
// The set is closed: storage may hand back arbitrary strings for legacy rows,
// but [ParseRole] is the only way to obtain a trusted value, and everything
// outside the enumeration is rejected there.
type Role string

const (
	// Unrestricted administrative access
	RoleAdmin Role = "admin"

	// Default role for standard registered shoppers
	RoleCustomer Role = "customer"
)

// DefaultRole is assigned when an account is created without an explicit role.
const DefaultRole = RoleCustomer

// Valid reports whether the role is a member of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw string into a trusted [Role].
//
// An empty or unrecognized value fails; callers surface that as a
// ROLE_UNDEFINED authorization rejection.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("sec: undefined role %q", raw)
	}
	return role, nil
}
