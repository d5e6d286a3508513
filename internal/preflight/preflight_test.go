package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"videomixer/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	font := filepath.Join(dir, "font.ttf")
	if err := os.WriteFile(font, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFileReadable("font", font); !r.Passed {
		t.Fatalf("expected readable font, got %s", r.Detail)
	}
	if r := CheckFileReadable("font", dir); r.Passed {
		t.Fatal("directory must not pass the file check")
	}
	if r := CheckFileReadable("font", filepath.Join(dir, "missing.ttf")); r.Passed {
		t.Fatal("missing file must fail")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("space", dir, 0); !r.Passed {
		t.Fatalf("zero minimum should pass, got %s", r.Detail)
	}
	if r := CheckFreeSpace("space", dir, ^uint64(0)); r.Passed {
		t.Fatal("impossible minimum should fail")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.Caption.Font = filepath.Join(testsupport.BaseDir(cfg), "missing.ttf")

	results := RunAll(context.Background(), cfg, t.TempDir())
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = r.Passed
	}
	if !names["Log directory"] || !names["Transcript directory"] || !names["Output directory"] {
		t.Fatalf("expected directory checks to pass: %+v", results)
	}
	if _, ok := names["Output free space"]; !ok {
		t.Fatalf("expected free space check: %+v", results)
	}
	failed := Failed(results)
	if len(failed) == 0 || failed[len(failed)-1].Name != "Caption font" {
		t.Fatalf("expected caption font failure, got %+v", failed)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Available {
			t.Fatalf("expected stubbed %s to be available: %+v", s.Name, s)
		}
	}
}
