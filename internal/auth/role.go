package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of dashboard roles. Every user carries exactly one.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{RoleAdmin, RoleManager, RoleViewer}

// ParseRole normalises s and returns the matching role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Operation is a data operation class checked by the authorization gate.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Operations lists every operation in display order.
var Operations = []Operation{OpRead, OpCreate, OpUpdate, OpDelete}

// ParseOperation normalises s and returns the matching operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpRead, OpCreate, OpUpdate, OpDelete:
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, s)
}

func (op Operation) String() string { return string(op) }

// Can is the fixed permission table. It is total over known roles and
// operations and panics on anything else, which can only be a programming
// error since both types are closed.
func Can(role Role, op Operation) bool {
	switch op {
	case OpRead, OpCreate, OpUpdate, OpDelete:
	default:
		panic(fmt.Sprintf("auth: unknown operation %q", string(op)))
	}
	switch role {
	case RoleAdmin, RoleManager:
		return true
	case RoleViewer:
		return op == OpRead
	default:
		panic(fmt.Sprintf("auth: unknown role %q", string(role)))
	}
}

// Matrix returns the permission table row for role, keyed by operation.
func Matrix(role Role) map[Operation]bool {
	out := make(map[Operation]bool, len(Operations))
	for _, op := range Operations {
		out[op] = Can(role, op)
	}
	return out
}
