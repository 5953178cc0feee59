package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RenderID    ID
	VariableKey ID
)

func (id RenderID) String() string    { return ID(id).String() }
func (id VariableKey) String() string { return ID(id).String() }

// NewRenderID identifies one evaluation of the dashboard.
func NewRenderID() RenderID {
	return RenderID(NewID())
}

// ParseRenderID accepts a caller-supplied request id only when it is a UUID.
func ParseRenderID(s string) (RenderID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("render ID cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("render ID %q is not a UUID: %w", s, err)
	}
	return RenderID(parsed.String()), nil
}

// ParseVariableKey parses a string into VariableKey
func ParseVariableKey(s string) (VariableKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("variable key cannot be empty")
	}
	return VariableKey(strings.TrimSpace(s)), nil
}
