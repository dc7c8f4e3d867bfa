// SPDX-License-Identifier: AGPL-3.0-or-later
package projection

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "out", "file.txt")
	content := []byte("hello world")

	if err := AtomicWrite(target, content, 0o640); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("got %q, want %q", got, content)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestAtomicWrite_Replaces(t *testing.T) {
	target := filepath.Join(t.TempDir(), "file.txt")
	if err := AtomicWrite(target, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(target, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "two" {
		t.Errorf("got %q, want two", got)
	}
}

func TestRenderTable(t *testing.T) {
	got := RenderTable([]string{"STEP", "STATUS"}, [][]string{
		{"validate_inputs", "SUCCESS"},
		{"lint_code", "SKIPPED"},
	})
	want := "STEP             STATUS\n" +
		"---------------  -------\n" +
		"validate_inputs  SUCCESS\n" +
		"lint_code        SKIPPED\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderHeader(t *testing.T) {
	if got := RenderHeader("Run"); got != "Run\n===\n\n" {
		t.Errorf("got %q", got)
	}
}
