package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterBooleanFlagParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{
			name:         "defaults_to_false",
			defaultValue: false,
			arguments:    []string{},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_without_value",
			defaultValue: false,
			arguments:    []string{"--summary"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "sets_false_with_equals",
			defaultValue: true,
			arguments:    []string{"--summary=false"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_false_with_no_literal",
			defaultValue: true,
			arguments:    []string{"--summary", "no"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_with_on_literal",
			defaultValue: false,
			arguments:    []string{"--summary", "on"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "ignores_non_boolean_trailing_value",
			defaultValue: false,
			arguments:    []string{"--summary", "maybe"},
			expected:     true,
			expectError:  false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "report"}
			flagSet := command.Flags()
			flagValue := !testCase.defaultValue
			registerBooleanFlag(flagSet, &flagValue, summaryFlagName, testCase.defaultValue, summaryFlagDescription)
			normalizedArguments := normalizeBooleanFlagArguments(command, testCase.arguments)
			parseErr := command.ParseFlags(normalizedArguments)
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if len(testCase.arguments) == 0 && flagValue != testCase.defaultValue {
				t.Fatalf("expected default %t, got %t", testCase.defaultValue, flagValue)
			}
			if flagValue != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, flagValue)
			}
		})
	}
}

func TestNormalizeBooleanFlagArgumentsKeepsLocations(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	child := &cobra.Command{Use: "report"}
	var summary bool
	registerBooleanFlag(child.Flags(), &summary, summaryFlagName, true, summaryFlagDescription)
	root.AddCommand(child)

	arguments := []string{"report", "--summary", "off", "--summary", "session.log", "--", "--summary", "yes"}
	normalized := normalizeBooleanFlagArguments(root, arguments)
	expected := []string{"report", "--summary=off", "--summary", "session.log", "--", "--summary", "yes"}
	if len(normalized) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, normalized)
	}
	for index := range expected {
		if normalized[index] != expected[index] {
			t.Fatalf("expected %v, got %v", expected, normalized)
		}
	}
}

func TestNormalizeBooleanFlagArgumentsKeepsCommandAliases(t *testing.T) {
	rootCommand := NewRootCommand(Dependencies{})
	normalized := normalizeBooleanFlagArguments(rootCommand, []string{"--verbose", "f", "--copy", "yes", "log"})
	expected := []string{"--verbose", "f", "--copy=yes", "log"}
	if strings.Join(normalized, " ") != strings.Join(expected, " ") {
		t.Fatalf("expected %v, got %v", expected, normalized)
	}
}
