package main_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/temirov/sessiontree/internal/sessiontest"
)

// #nosec G204
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("binary integration test skipped in short mode")
	}
	binaryName := "sessiontree_integration_test_binary"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(t.TempDir(), binaryName)
	buildCommand := exec.Command("go", "build", "-o", binaryPath, ".")
	outputData, buildErr := buildCommand.CombinedOutput()
	if buildErr != nil {
		t.Fatalf("Failed to build binary: %v\nBuild Output:\n%s", buildErr, string(outputData))
	}
	return binaryPath
}

type binaryResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// #nosec G204
func runBinary(t *testing.T, binaryPath string, workingDirectory string, stdin string, arguments ...string) binaryResult {
	t.Helper()
	command := exec.Command(binaryPath, arguments...)
	command.Dir = workingDirectory
	command.Env = append(os.Environ(), "HOME="+workingDirectory, "USERPROFILE="+workingDirectory)
	command.Stdin = strings.NewReader(stdin)
	var standardOutput, standardError bytes.Buffer
	command.Stdout = &standardOutput
	command.Stderr = &standardError

	runError := command.Run()
	result := binaryResult{stdout: standardOutput.String(), stderr: standardError.String()}
	if runError != nil {
		exitError, isExitError := runError.(*exec.ExitError)
		if !isExitError {
			t.Fatalf("run %s %s: %v", filepath.Base(binaryPath), strings.Join(arguments, " "), runError)
		}
		result.exitCode = exitError.ExitCode()
	}
	return result
}

func describe(result binaryResult) string {
	return fmt.Sprintf("--- Exit Code ---\n%d\n--- Standard Output ---\n%s\n--- Standard Error ---\n%s", result.exitCode, result.stdout, result.stderr)
}

func TestSessiontreeBinary(t *testing.T) {
	binaryPath := buildBinary(t)
	workingDirectory := t.TempDir()
	sessionPath := filepath.Join(workingDirectory, "day7.log")
	if err := os.WriteFile(sessionPath, []byte(sessiontest.CanonicalLog), 0o600); err != nil {
		t.Fatalf("write session: %v", err)
	}

	t.Run("report_json", func(t *testing.T) {
		result := runBinary(t, binaryPath, workingDirectory, "", "report", "--format", "json", sessionPath)
		if result.exitCode != 0 {
			t.Fatalf("report failed\n%s", describe(result))
		}
		var documents []struct {
			Summary struct {
				MatchedBytes int64 `json:"matchedBytes"`
			} `json:"summary"`
		}
		if err := json.Unmarshal([]byte(result.stdout), &documents); err != nil {
			t.Fatalf("decode: %v\n%s", err, describe(result))
		}
		if len(documents) != 1 || documents[0].Summary.MatchedBytes != sessiontest.CanonicalSmallSum {
			t.Fatalf("unexpected documents: %+v", documents)
		}
	})

	t.Run("free_from_stdin", func(t *testing.T) {
		result := runBinary(t, binaryPath, workingDirectory, sessiontest.CanonicalLog, "f")
		if result.exitCode != 0 || !strings.Contains(result.stdout, "Delete /d") {
			t.Fatalf("free failed\n%s", describe(result))
		}
	})

	t.Run("invalid_listing_exits_non_zero", func(t *testing.T) {
		result := runBinary(t, binaryPath, workingDirectory, "$ cd /\n$ ls\nbogus\n", "tree")
		if result.exitCode == 0 {
			t.Fatalf("expected non-zero exit\n%s", describe(result))
		}
		if !strings.Contains(result.stderr, "bogus") {
			t.Fatalf("expected offending line on stderr\n%s", describe(result))
		}
	})
}
