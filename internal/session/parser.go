// Package session parses recorded terminal sessions into structured commands.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// PromptMarker is the first token of every command-start line.
	PromptMarker = "$"

	errorMalformedCommandFormat = "line %d: %q: %v"
	errorReadSessionFormat      = "reading session: %w"

	maximumLineBytes = 1024 * 1024
)

// ErrMalformedCommand reports a command-start line without a command name.
var ErrMalformedCommand = errors.New("malformed command")

// MalformedCommandError locates a malformed command-start line.
type MalformedCommandError struct {
	Line int
	Text string
}

func (malformedError *MalformedCommandError) Error() string {
	return fmt.Sprintf(errorMalformedCommandFormat, malformedError.Line, malformedError.Text, ErrMalformedCommand)
}

// Unwrap exposes ErrMalformedCommand to errors.Is.
func (malformedError *MalformedCommandError) Unwrap() error {
	return ErrMalformedCommand
}

// Command is one terminal invocation together with the lines it printed.
type Command struct {
	Name   string
	Args   []string
	Output []string
	// Line is the 1-based line number of the command-start line.
	Line int
}

// Arg returns the argument at index or an empty string when absent.
func (command Command) Arg(index int) string {
	if index < 0 || index >= len(command.Args) {
		return ""
	}
	return command.Args[index]
}

// Parse turns session lines into commands in the order they were opened.
// Lines before the first command are discarded.
func Parse(lines []string) ([]Command, error) {
	commands := make([]Command, 0)
	var current *Command
	for index, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != PromptMarker {
			if current != nil {
				current.Output = append(current.Output, line)
			}
			continue
		}
		if len(fields) < 2 {
			return nil, &MalformedCommandError{Line: index + 1, Text: line}
		}
		if current != nil {
			commands = append(commands, *current)
		}
		current = &Command{
			Name:   fields[1],
			Args:   append([]string{}, fields[2:]...),
			Output: []string{},
			Line:   index + 1,
		}
	}
	if current != nil {
		commands = append(commands, *current)
	}
	return commands, nil
}

// ParseReader reads a session line by line and parses it.
func ParseReader(reader io.Reader) ([]Command, error) {
	lines, readError := ReadLines(reader)
	if readError != nil {
		return nil, readError
	}
	return Parse(lines)
}

// ReadLines splits the reader into lines with trailing carriage returns removed.
func ReadLines(reader io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maximumLineBytes)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf(errorReadSessionFormat, scanError)
	}
	return lines, nil
}
