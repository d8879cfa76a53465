package domain

import (
	"fmt"
	"strings"
)

// PermissionLevel is persisted as a member of the permission_level enum.
type PermissionLevel string

const (
	PermissionNone  PermissionLevel = "NONE"
	PermissionRead  PermissionLevel = "READ"
	PermissionWrite PermissionLevel = "WRITE"
	PermissionAdmin PermissionLevel = "ADMIN"
)

var permissionLevels = []PermissionLevel{PermissionNone, PermissionRead, PermissionWrite, PermissionAdmin}

// ParsePermissionLevel rejects anything outside the closed set instead of defaulting.
func ParsePermissionLevel(raw string) (PermissionLevel, error) {
	candidate := PermissionLevel(strings.ToUpper(strings.TrimSpace(raw)))
	for _, level := range permissionLevels {
		if candidate == level {
			return level, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPermission, raw)
}

func (p PermissionLevel) Valid() bool {
	for _, level := range permissionLevels {
		if p == level {
			return true
		}
	}
	return false
}

// Satisfies reports whether a role holding p may perform an operation requiring
// required. Admin satisfies every requirement; other levels only their own.
func (p PermissionLevel) Satisfies(required PermissionLevel) bool {
	if p == PermissionAdmin {
		return true
	}
	return p == required
}

func (p PermissionLevel) String() string {
	return string(p)
}
