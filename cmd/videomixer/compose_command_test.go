package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videomixer/internal/testsupport"
)

func clipPaths(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, "clip"+string(rune('a'+i))+".mp4")
		if err := os.WriteFile(paths[i], nil, 0o644); err != nil {
			t.Fatalf("write clip: %v", err)
		}
	}
	return paths
}

func TestComposeDryRunPrintsPlan(t *testing.T) {
	env := setupCLITestEnv(t)
	clips := clipPaths(t, env.baseDir, 2)
	output := filepath.Join(env.baseDir, "out.mp4")

	args := append([]string{"compose", "--dry-run", "--json", "-o", output, "--no-caption", "2", "--width", "640"}, clips...)
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("compose --dry-run: %v", err)
	}

	var plan struct {
		Params struct {
			Width  int    `json:"width"`
			Height int    `json:"height"`
			FPS    string `json:"fps"`
		} `json:"params"`
		Clips []struct {
			Caption bool `json:"caption"`
		} `json:"clips"`
		Args            []string `json:"args"`
		TotalDurationUS int64    `json:"total_duration_us"`
	}
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if plan.Params.Width != 640 || plan.Params.Height != 720 {
		t.Fatalf("unexpected canvas %dx%d", plan.Params.Width, plan.Params.Height)
	}
	if len(plan.Clips) != 2 || !plan.Clips[0].Caption || plan.Clips[1].Caption {
		t.Fatalf("unexpected caption flags: %+v", plan.Clips)
	}
	if plan.TotalDurationUS != 25_000_000 {
		t.Fatalf("expected 25s total, got %d", plan.TotalDurationUS)
	}
	if plan.Args[len(plan.Args)-1] != output {
		t.Fatalf("expected output last, got %v", plan.Args)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("dry run should not write output: %v", err)
	}
}

func TestComposeRejectsInvalidSettings(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"compose", "-o", "out.mov", "--preset", "warp", "clip.avi"}, env.configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"clips[0]", "output", "preset"} {
		requireContains(t, err.Error(), field)
	}
}

func TestComposeRejectsBadCaptionIndex(t *testing.T) {
	env := setupCLITestEnv(t)
	clips := clipPaths(t, env.baseDir, 1)
	_, _, err := runCLI(t, append([]string{"compose", "--no-caption", "3"}, clips...), env.configPath)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestComposeRunsEncodeAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	clips := clipPaths(t, env.baseDir, 2)
	output := filepath.Join(env.baseDir, "trip.mp4")

	out, stderr, err := runCLI(t, append([]string{"compose", "-o", output}, clips...), env.configPath)
	if err != nil {
		t.Fatalf("compose: %v\nstderr: %s", err, stderr)
	}
	requireContains(t, out, "Wrote "+output)
	requireContains(t, out, "00:00 Wed,05.01.2024 12:04:05")
	requireContains(t, out, "00:12 Wed,05.01.2024 12:04:05")
	requireContains(t, out, "Transcript:")
	requireContains(t, stderr, "100.0%")

	store := testsupport.MustOpenHistory(t, env.cfg)
	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(records) != 1 || records[0].State != "succeeded" || records[0].Clips != 2 {
		t.Fatalf("unexpected history: %+v", records)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Succeeded")
	requireContains(t, out, "trip.mp4")

	out, _, err = runCLI(t, []string{"history", "show", records[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, records[0].ID)

	out, _, err = runCLI(t, []string{"logs", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("logs show: %v", err)
	}
	requireContains(t, out, "----Process finished----")
	requireContains(t, out, "Chapter")
}

func TestComposeReportsFailure(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToolScripts(stubFailingFFmpeg, ""))
	clips := clipPaths(t, env.baseDir, 1)

	_, _, err := runCLI(t, append([]string{"compose", "-o", filepath.Join(env.baseDir, "x.mp4")}, clips...), env.configPath)
	if err == nil || !strings.Contains(err.Error(), "exit 1") {
		t.Fatalf("expected failure with exit code, got %v", err)
	}

	store := testsupport.MustOpenHistory(t, env.cfg)
	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(records) != 1 || records[0].State != "failed" {
		t.Fatalf("unexpected history: %+v", records)
	}
	entries, err := os.ReadDir(env.cfg.Paths.TranscriptDir)
	if err != nil {
		t.Fatalf("read transcript dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed job should not persist a transcript, found %d", len(entries))
	}
}

func TestComposeCaptionMarginHelpMatchesPlacement(t *testing.T) {
	flag := newComposeCommand(&commandContext{}).Flags().Lookup("caption-margin")
	if flag == nil {
		t.Fatal("caption-margin flag missing")
	}
	if !strings.Contains(flag.Usage, "top-left") {
		t.Fatalf("caption-margin usage %q should describe the top-left anchor", flag.Usage)
	}
}
