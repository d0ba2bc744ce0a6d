package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoCycles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "require('./b');",
		"b.js": "module.exports = 1;",
	})
	code, stdout, _ := runCLI(t, filepath.Join(dir, "a.js"))
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d", exitOK, code)
	}
	if stdout != "No cycles found in 2 files.\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestRun_Cycles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "require('./b');",
		"b.js": "require('./a');",
	})
	code, stdout, stderr := runCLI(t, "--sort-members", filepath.Join(dir, "a.js"))
	if code != exitCycles {
		t.Fatalf("expected exit %d, got %d", exitCycles, code)
	}
	if stdout != "" {
		t.Errorf("expected empty stdout, got %q", stdout)
	}
	want := "Found cycles:\n[\n    [\n        \"" + filepath.Join(dir, "a.js") + "\",\n        \"" + filepath.Join(dir, "b.js") + "\"\n    ]\n]\n"
	if !strings.HasSuffix(stderr, want) {
		t.Errorf("stderr does not end with the cycle dump:\n%s", stderr)
	}
}

func TestRun_TypeImportsFlag(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ts": "import { b } from './b';\nexport const a = 1;",
		"b.ts": "import type { A } from './a';\nexport const b = 2;",
	})
	root := filepath.Join(dir, "a.ts")
	if code, _, _ := runCLI(t, root); code != exitOK {
		t.Fatalf("expected exit %d without type imports, got %d", exitOK, code)
	}
	if code, _, _ := runCLI(t, "--include-type-imports", root); code != exitCycles {
		t.Fatalf("expected exit %d with type imports, got %d", exitCycles, code)
	}
}

func TestRun_FatalError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.js": "require('./missing');"})
	code, _, stderr := runCLI(t, filepath.Join(dir, "a.js"))
	if code != exitFatal {
		t.Fatalf("expected exit %d, got %d", exitFatal, code)
	}
	if !strings.Contains(stderr, "RESOLUTION_ERROR") || !strings.Contains(stderr, filepath.Join(dir, "a.js")) {
		t.Errorf("expected resolution error naming the file, got:\n%s", stderr)
	}
}

func TestRun_Usage(t *testing.T) {
	if code, _, _ := runCLI(t); code != exitUsage {
		t.Errorf("expected exit %d without roots, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "--no-such-flag"); code != exitUsage {
		t.Errorf("expected exit %d for unknown flag, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "--trace", "a.js"); code != exitUsage {
		t.Errorf("expected exit %d for incomplete trace, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "--extensions", "js", "a.js"); code != exitUsage {
		t.Errorf("expected exit %d for invalid config, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "--ui", "--trace", "a.js", "b.js"); code != exitUsage {
		t.Errorf("expected exit %d for --ui with --trace, got %d", exitUsage, code)
	}
	if code, _, _ := runCLI(t, "--trace", "--history-report", "3", "a.js", "b.js"); code != exitUsage {
		t.Errorf("expected exit %d for --trace with --history-report, got %d", exitUsage, code)
	}
}

func TestRun_HistoryReport(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "require('./b');",
		"b.js": "require('./a');",
	})
	db := filepath.Join(t.TempDir(), "history.db")
	root := filepath.Join(dir, "a.js")

	for i := 0; i < 2; i++ {
		if code, _, _ := runCLI(t, "--history", db, root); code != exitCycles {
			t.Fatalf("expected exit %d, got %d", exitCycles, code)
		}
	}

	code, stdout, _ := runCLI(t, "--history", db, "--history-report", "5")
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d", exitOK, code)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) < 3 || lines[0] != "RunID\tTimestamp\tFiles\tEdges\tCycles" {
		t.Fatalf("unexpected report:\n%s", stdout)
	}
	for _, want := range []string{"Recurring cycle members:", "2\t" + root, "2\t" + filepath.Join(dir, "b.js")} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report is missing %q:\n%s", want, stdout)
		}
	}

	if code, _, _ := runCLI(t, "--history-report", "5"); code != exitUsage {
		t.Errorf("expected exit %d without a history database, got %d", exitUsage, code)
	}
}

func TestRun_Trace(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.js": "require('./b');",
		"b.js": "module.exports = 1;",
	})
	a, b := filepath.Join(dir, "a.js"), filepath.Join(dir, "b.js")

	code, stdout, _ := runCLI(t, "--trace", a, b)
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d", exitOK, code)
	}
	if stdout != a+"\n  -> "+b+"\n" {
		t.Errorf("unexpected chain %q", stdout)
	}

	if code, _, _ := runCLI(t, "--trace", b, a); code != exitCycles {
		t.Errorf("expected exit %d when no chain exists, got %d", exitCycles, code)
	}
}

func TestRun_VersionAndPrintConfig(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	if code != exitOK || stdout != "importcycles v"+VERSION+"\n" {
		t.Errorf("unexpected version output %d %q", code, stdout)
	}

	code, stdout, _ = runCLI(t, "--print-config", "--include-reexports")
	if code != exitOK {
		t.Fatalf("expected exit %d, got %d", exitOK, code)
	}
	if !strings.Contains(stdout, "include_reexports = true") {
		t.Errorf("expected effective config, got:\n%s", stdout)
	}
}
