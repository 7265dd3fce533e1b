package graph

import "fmt"

// Role classifies a node for control analysis
type Role uint8

const (
	// RoleFree nodes may be selected as drivers by the search
	RoleFree Role = iota
	// RoleSource nodes always act as drivers
	RoleSource
	// RoleTarget nodes are the control objective
	RoleTarget
)

// String returns the string representation of a role
func (r Role) String() string {
	switch r {
	case RoleFree:
		return "Free"
	case RoleSource:
		return "Source"
	case RoleTarget:
		return "Target"
	default:
		return "Unknown"
	}
}

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, error) {
	switch s {
	case "Free", "free":
		return RoleFree, nil
	case "Source", "source":
		return RoleSource, nil
	case "Target", "target":
		return RoleTarget, nil
	default:
		return RoleFree, fmt.Errorf("%w: unknown role %q", ErrInvalidGraph, s)
	}
}

// NodeSpec describes one node of the network snapshot
type NodeSpec struct {
	ID   uint64
	Role Role
}

// EdgeSpec describes one directed edge of the network snapshot
type EdgeSpec struct {
	FromNodeID uint64
	ToNodeID   uint64
}
