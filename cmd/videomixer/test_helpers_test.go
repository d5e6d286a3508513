package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"videomixer/internal/config"
	"videomixer/internal/testsupport"
)

const stubFFmpeg = `case "$*" in
  *-hwaccels*) echo "Hardware acceleration methods:"; exit 0 ;;
  *-version*) echo "ffmpeg version 7.0-test"; exit 0 ;;
esac
echo "frame=1"
echo "out_time_us=12500000"
echo "out_time_us=25000000"
echo "progress=end"
exit 0`

const stubFailingFFmpeg = `case "$*" in
  *-hwaccels*) echo "Hardware acceleration methods:"; exit 0 ;;
esac
echo "Invalid data found when processing input" >&2
exit 1`

const stubFFprobe = `echo '{"streams":[{"index":0,"width":1280,"height":720,"r_frame_rate":"30/1"},{"index":1,"sample_rate":"44100"}],"format":{"duration":"12.5","tags":{"creation_time":"2024-05-01T03:04:05.000000Z"}}}'`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithToolScripts(stubFFmpeg, stubFFprobe)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "videomixer.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
