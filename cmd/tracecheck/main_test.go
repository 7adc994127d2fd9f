// main_test.go tests the tracecheck command line.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const (
	cleanTrace = "T1|acq(L1)|1\nT1|w(V1)|2\nT1|rel(L1)|3\nT2|acq(L1)|4\nT2|w(V1)|5\nT2|rel(L1)|6\n"
	raceTrace  = "T1|w(V1)|1\nT2|w(V1)|2\n"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

// TestRun_Check tests verdicts and exit codes.
func TestRun_Check(t *testing.T) {
	clean := writeFile(t, "clean.std", cleanTrace)
	racy := writeFile(t, "race.std", raceTrace)
	variant := writeFile(t, "variant.std", "1|w(4)|1\n2|w[4]|2\n")
	malformed := writeFile(t, "bad.std", "T1|w(V1)|1\nT2|w(V1)#|2\n")
	unjoined := writeFile(t, "unjoined.std", "T1|fork(T2)|1\nT2|w(V1)|2\n")
	syntax := writeFile(t, "syntax.std", "T1|w(L1)|1\n")
	overflow := writeFile(t, "overflow.std", "T1|w(V1)|1\nT1|w(V1)|99999999999999999999999\n")

	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"clean", "", []string{"check", clean}, exitClean, "no violation found", ""},
		{"race", "", []string{"check", racy}, exitViolations, "WARNING: DATA RACE (write-write)", ""},
		{"stdin", raceTrace, []string{"check", "-"}, exitViolations, "Found 1 violation(s)", ""},
		{"variant rejected", "", []string{"check", variant}, exitMalformed, "", "Suggestion:"},
		{"variant normalized", "", []string{"check", "-normalize", variant}, exitViolations, "write of V4 by T1", ""},
		{"pipelined", "", []string{"check", "-normalize", "-pipeline", variant}, exitViolations, "write-write", ""},
		{"lexical error", "", []string{"check", malformed}, exitMalformed, "", "2:9"},
		{"syntax error", "", []string{"check", syntax}, exitMalformed, "", "expected MemoryLocation"},
		{"line number overflow", "", []string{"check", overflow}, exitMalformed, "", "2:10: number out of range"},
		{"warn note", "", []string{"check", unjoined}, exitClean, "note: unjoined-thread", ""},
		{"lenient", "", []string{"check", "-strict=lenient", unjoined}, exitClean, "no violation found", ""},
		{"strict", "", []string{"check", "-strict=strict", unjoined}, exitViolations, "CONSISTENCY (unjoined-thread)", ""},
		{"missing file", "", []string{"check", filepath.Join(t.TempDir(), "none.std")}, exitFailure, "", "no such file"},
		{"no trace", "", []string{"check"}, exitFailure, "", "expected exactly one trace"},
		{"two traces", "", []string{"check", clean, racy}, exitFailure, "", "got 2"},
		{"bad flag", "", []string{"check", "-colour", clean}, exitFailure, "", "flag provided but not defined"},
		{"bad strictness", "", []string{"check", "-strict=paranoid", clean}, exitFailure, "", "unknown strictness"},
		{"bad format", "", []string{"check", "-format=xml", clean}, exitFailure, "", "unknown output format"},
		{"bad profile", "", []string{"check", "-profile=gpu", clean}, exitFailure, "", "unknown profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.stdin, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, stdout, stderr)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout, tt.wantStdout)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantStderr)
			}
			if strings.Contains(stdout, "\x1b[") {
				t.Errorf("colour codes written to a non-terminal: %q", stdout)
			}
		})
	}
}

// TestRun_CheckJSON tests the JSON output.
func TestRun_CheckJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, raceTrace, "check", "-format=json", "-")
	if code != exitViolations {
		t.Fatalf("exit code = %d, want %d", code, exitViolations)
	}
	var doc struct {
		Clean      bool `json:"clean"`
		Violations []struct {
			Kind  string `json:"kind"`
			Lines []int  `json:"lines"`
		} `json:"violations"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if doc.Clean || len(doc.Violations) != 1 || doc.Violations[0].Kind != "write-write" {
		t.Errorf("document = %+v", doc)
	}
}

// TestRun_CheckConfig tests config files and flag precedence.
func TestRun_CheckConfig(t *testing.T) {
	unjoined := writeFile(t, "unjoined.std", "T1|fork(T2)|1\nT2|w(V1)|2\n")
	strict := writeFile(t, "strict.yaml", "strictness: strict\noutput:\n  format: json\n")
	future := writeFile(t, "future.yaml", "format_version: v2.0.0\n")
	unknown := writeFile(t, "unknown.yaml", "strictnes: strict\n")

	code, stdout, _ := runCLI(t, "", "check", "-config", strict, unjoined)
	if code != exitViolations || !strings.Contains(stdout, `"unjoined-thread"`) {
		t.Errorf("config strictness: code = %d, stdout = %s", code, stdout)
	}

	code, stdout, _ = runCLI(t, "", "check", "-config", strict, "-strict=lenient", "-format=text", unjoined)
	if code != exitClean || !strings.Contains(stdout, "no violation found") {
		t.Errorf("flag override: code = %d, stdout = %s", code, stdout)
	}

	code, _, stderr := runCLI(t, "", "check", "-config", future, unjoined)
	if code != exitFailure || !strings.Contains(stderr, "unsupported trace format version") {
		t.Errorf("future format: code = %d, stderr = %s", code, stderr)
	}

	code, _, stderr = runCLI(t, "", "check", "-config", unknown, unjoined)
	if code != exitFailure || !strings.Contains(stderr, "strictnes") {
		t.Errorf("unknown key: code = %d, stderr = %s", code, stderr)
	}
}

// TestRun_CheckGzip tests compressed input.
func TestRun_CheckGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(raceTrace)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	path := writeFile(t, "race.std.gz", buf.String())

	code, stdout, _ := runCLI(t, "", "check", path)
	if code != exitViolations || !strings.Contains(stdout, "lines: 1, 2") {
		t.Errorf("code = %d, stdout = %s", code, stdout)
	}
}

// TestRun_CheckLogging tests that diagnostics go to stderr.
func TestRun_CheckLogging(t *testing.T) {
	path := writeFile(t, "clean.std", cleanTrace)
	code, stdout, stderr := runCLI(t, "", "check", "-log-level=debug", "-log-format=json", path)
	if code != exitClean {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if strings.Contains(stdout, "analysis finished") {
		t.Error("log record written to stdout")
	}
	for _, want := range []string{`"msg":"analysis finished"`, `"msg":"trace parsed"`, `"msg":"trace analyzed"`} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %s:\n%s", want, stderr)
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		if strings.Contains(line, `"msg":"trace analyzed"`) && !strings.Contains(line, `"component":"race"`) {
			t.Errorf("analyzer record not tagged with its component: %s", line)
		}
		if !strings.Contains(line, `"trace":`) {
			t.Errorf("record not tagged with the trace: %s", line)
		}
	}
}

// TestRun_CheckProfile tests that a profile file is written.
func TestRun_CheckProfile(t *testing.T) {
	path := writeFile(t, "clean.std", cleanTrace)
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "", "check", "-profile=mem", "-profile-dir", dir, path)
	if code != exitClean {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "mem.pprof")); err != nil {
		t.Errorf("memory profile not written: %v", err)
	}
}

// TestRun_Tokens tests the token dump.
func TestRun_Tokens(t *testing.T) {
	path := writeFile(t, "t.std", "T1|w(5)|1\n")

	code, stdout, _ := runCLI(t, "", "tokens", path)
	if code != exitClean {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d tokens, want 8:\n%s", len(lines), stdout)
	}
	if !strings.Contains(lines[4], "LineNumber") {
		t.Errorf("operand = %q, want LineNumber", lines[4])
	}

	code, stdout, _ = runCLI(t, "T1|w(5)|1\n", "tokens", "-normalize", "-")
	if code != exitClean || !strings.Contains(stdout, "MemoryLocation") {
		t.Errorf("normalized: code = %d, stdout = %s", code, stdout)
	}

	code, _, _ = runCLI(t, "T1|w(V1)%|1", "tokens", "-")
	if code != exitMalformed {
		t.Errorf("lexical error exit code = %d, want %d", code, exitMalformed)
	}
}

// TestRun_Commands tests dispatch of the remaining commands.
func TestRun_Commands(t *testing.T) {
	tests := []struct {
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{[]string{"version"}, exitClean, "tracecheck version 0.1.0", ""},
		{[]string{"--version"}, exitClean, "trace format v1", ""},
		{[]string{"help"}, exitClean, "COMMANDS:", ""},
		{[]string{"-h"}, exitClean, "EXIT STATUS:", ""},
		{[]string{"frobnicate"}, exitFailure, "", "Unknown command: frobnicate"},
		{nil, exitFailure, "", "USAGE:"},
		{[]string{"check", "-h"}, exitClean, "", "Usage: tracecheck check"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stdout, tt.wantStdout) || !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stdout = %q, stderr = %q", stdout, stderr)
			}
		})
	}
}

// TestUseColor tests the colour decision.
func TestUseColor(t *testing.T) {
	on, off := true, false
	if !useColor(&on, &bytes.Buffer{}) {
		t.Error("explicit true ignored")
	}
	if useColor(&off, os.Stdout) {
		t.Error("explicit false ignored")
	}
	if useColor(nil, &bytes.Buffer{}) {
		t.Error("buffer treated as terminal")
	}
}
