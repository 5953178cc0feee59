package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRenderID tests render ID parsing
func TestParseRenderID(t *testing.T) {
	tests := []struct {
		input    string
		expected RenderID
		hasError bool
	}{
		{"0190a6b2-7c1e-7d3a-9f5e-2b8c4d6e8f10", RenderID("0190a6b2-7c1e-7d3a-9f5e-2b8c4d6e8f10"), false},
		{"  0190A6B2-7C1E-7D3A-9F5E-2B8C4D6E8F10 ", RenderID("0190a6b2-7c1e-7d3a-9f5e-2b8c4d6e8f10"), false},
		{"not-a-uuid", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := ParseRenderID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseVariableKey tests variable key parsing
func TestParseVariableKey(t *testing.T) {
	key, err := ParseVariableKey(" platelets ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if key != VariableKey("platelets") {
		t.Errorf("Expected platelets, got %s", key)
	}
	if _, err := ParseVariableKey("   "); err == nil {
		t.Error("Expected error for blank key")
	}
}
