//go:build test

package testutils

import (
	"fmt"
	"strings"
	"testing"
)

// This module's only TextAsserter caller (queue_test.go) uses the default,
// no-options Assert path, so only that path and the option defaults
// themselves are covered here rather than the full normalization matrix.

func TestTextAsserter_DefaultOptions(t *testing.T) {
	ta := NewTextAsserter(t)

	opts := ta.GetOptions()
	if opts.IgnoreLeadingWhitespace != false {
		t.Errorf("Expected IgnoreLeadingWhitespace to be false by default, got %v", opts.IgnoreLeadingWhitespace)
	}
	if opts.IgnoreTrailingWhitespace != false {
		t.Errorf("Expected IgnoreTrailingWhitespace to be false by default, got %v", opts.IgnoreTrailingWhitespace)
	}
	if opts.IgnoreEmptyLines != false {
		t.Errorf("Expected IgnoreEmptyLines to be false by default, got %v", opts.IgnoreEmptyLines)
	}
	if opts.TrimSpace != false {
		t.Errorf("Expected TrimSpace to be false by default, got %v", opts.TrimSpace)
	}
}

func TestTextAsserter_BasicComparison(t *testing.T) {
	t.Run("IdenticalStrings", func(t *testing.T) {
		ta := NewTextAsserter(&testing.T{})
		diff := ta.diff("hello world", "hello world")
		if diff != "" {
			t.Errorf("Expected no diff for identical strings, got: %s", diff)
		}
	})

	t.Run("DifferentStrings", func(t *testing.T) {
		ta := NewTextAsserter(&testing.T{})
		diff := ta.diff("hello world", "hello universe")
		if diff == "" {
			t.Error("Expected diff for different strings")
		}
	})
}

func TestTextAsserter_Assert_Failure(t *testing.T) {
	mockT := &mockTestingT{}
	ta := NewTextAsserterWithInterface(mockT)

	ta.Assert("hello", "world")

	if !mockT.errorCalled {
		t.Error("Expected Errorf to be called for failed assertion")
	}

	if !contains(mockT.errorMessage, "Text assertion failed") {
		t.Errorf("Expected error message to contain 'Text assertion failed', got: %s", mockT.errorMessage)
	}
}

func TestTextAsserter_Assert_Success(t *testing.T) {
	mockT := &mockTestingT{}
	ta := NewTextAsserterWithInterface(mockT)

	ta.Assert("hello", "hello")

	if mockT.errorCalled {
		t.Errorf("Expected no error for successful assertion, got: %s", mockT.errorMessage)
	}
}

type mockTestingT struct {
	errorCalled  bool
	errorMessage string
}

func (m *mockTestingT) Errorf(format string, args ...interface{}) {
	m.errorCalled = true
	m.errorMessage = fmt.Sprintf(format, args...)
}

func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}
