package session_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sessiontree/internal/session"
	"github.com/temirov/sessiontree/internal/sessiontest"
)

func TestParseCanonicalSession(t *testing.T) {
	commands, err := session.Parse(sessiontest.CanonicalLines())
	require.NoError(t, err)
	require.Len(t, commands, 10)

	require.Equal(t, "cd", commands[0].Name)
	require.Equal(t, []string{"/"}, commands[0].Args)
	require.Empty(t, commands[0].Output)
	require.Equal(t, 1, commands[0].Line)

	require.Equal(t, "ls", commands[1].Name)
	require.Empty(t, commands[1].Args)
	require.Equal(t, []string{"dir a", "14848514 b.txt", "8504156 c.dat", "dir d"}, commands[1].Output)

	last := commands[len(commands)-1]
	require.Equal(t, "ls", last.Name)
	require.Len(t, last.Output, 4)
}

func TestParseEdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		lines    []string
		expected []session.Command
	}{
		{
			name:     "no commands",
			lines:    []string{"dir a", "123 b"},
			expected: []session.Command{},
		},
		{
			name:  "leading output discarded",
			lines: []string{"stray", "$ ls", "dir x"},
			expected: []session.Command{
				{Name: "ls", Args: []string{}, Output: []string{"dir x"}, Line: 2},
			},
		},
		{
			name:  "arguments and verbatim output",
			lines: []string{"$  cd   foo  bar ", "  12 spaced name  "},
			expected: []session.Command{
				{Name: "cd", Args: []string{"foo", "bar"}, Output: []string{"  12 spaced name  "}, Line: 1},
			},
		},
		{
			name:  "prompt must be a separate token",
			lines: []string{"$ ls", "$ls"},
			expected: []session.Command{
				{Name: "ls", Args: []string{}, Output: []string{"$ls"}, Line: 1},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			commands, err := session.Parse(testCase.lines)
			require.NoError(t, err)
			require.Equal(t, testCase.expected, commands)
		})
	}
}

func TestParseMalformedCommand(t *testing.T) {
	_, err := session.Parse([]string{"$ cd /", "$", "$ ls"})
	require.Error(t, err)
	require.True(t, errors.Is(err, session.ErrMalformedCommand))

	var malformed *session.MalformedCommandError
	require.True(t, errors.As(err, &malformed))
	require.Equal(t, 2, malformed.Line)
}

func TestParseReaderStripsCarriageReturns(t *testing.T) {
	commands, err := session.ParseReader(strings.NewReader("$ cd /\r\n$ ls\r\n10 a\r\n"))
	require.NoError(t, err)
	require.Len(t, commands, 2)
	require.Equal(t, []string{"/"}, commands[0].Args)
	require.Equal(t, []string{"10 a"}, commands[1].Output)
}

func TestCommandArg(t *testing.T) {
	command := session.Command{Name: "cd", Args: []string{"a"}}
	require.Equal(t, "a", command.Arg(0))
	require.Equal(t, "", command.Arg(1))
	require.Equal(t, "", command.Arg(-1))
}
