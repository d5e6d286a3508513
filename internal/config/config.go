package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir        string `toml:"log_dir"`
	TranscriptDir string `toml:"transcript_dir"`
	HistoryDB     string `toml:"history_db"`
	APIBind       string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token on API requests.
	APIToken string `toml:"api_token"`
}

// Tools locates the external media tools.
type Tools struct {
	FFmpeg              string `toml:"ffmpeg"`
	FFprobe             string `toml:"ffprobe"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
}

// Caption contains the default caption styling applied to every job.
type Caption struct {
	Margin           int     `toml:"margin"`
	Size             int     `toml:"size"`
	Color            string  `toml:"color"`
	BorderColor      string  `toml:"border_color"`
	BorderWidthRatio float64 `toml:"border_width_ratio"`
	DisplaySeconds   int     `toml:"display_seconds"`
	Font             string  `toml:"font"`
	// TimezoneOffsetHours is the fixed offset creation timestamps are shown in.
	TimezoneOffsetHours int `toml:"timezone_offset_hours"`
}

// Output contains defaults for the encoded artifact.
type Output struct {
	BackgroundColor string `toml:"background_color"`
	Preset          string `toml:"preset"`
	HWEncode        bool   `toml:"hw_encode"`
	Codec           string `toml:"codec"`
}

// Notifications configures ntfy alerts for finished jobs.
type Notifications struct {
	// NtfyTopic is the full topic URL; empty disables notifications.
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for videomixer.
//
// Configuration sections by subsystem:
//   - Paths: diagnostic logs, job transcripts, history database, API bind
//   - Tools: ffmpeg/ffprobe binaries and probe timeout
//   - Caption: default timestamp caption styling
//   - Output: background fill, encoder preset, hardware encoding, codec family
//   - Notifications: ntfy topic for finished jobs
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Caption       Caption       `toml:"caption"`
	Output        Output        `toml:"output"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load locates, parses, normalizes and validates the configuration. It
// returns the config, the file it came from, and whether that file existed.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	err = toml.NewDecoder(file).DisallowUnknownFields().Decode(cfg)
	var strict *toml.StrictMissingError
	var decodeErr *toml.DecodeError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &strict):
		return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
	case errors.As(err, &decodeErr):
		row, col := decodeErr.Position()
		return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
	default:
		return fmt.Errorf("parse config %s: %w", path, err)
	}
}

// resolveConfigPath picks the explicit path if given, otherwise the first
// existing file among the user config and ./videomixer.toml. When nothing
// exists the user config path is returned with exists=false.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		if err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, exists, nil
	}

	candidates := []string{defaultConfigPath, "videomixer.toml"}
	var first string
	for _, candidate := range candidates {
		expanded, err := ExpandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = expanded
		}
		if ok, _ := isFile(expanded); ok {
			return expanded, true, nil
		}
	}
	return first, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	default:
		return !info.IsDir(), nil
	}
}

// EnsureDirectories creates the log and transcript directories plus the parent
// of the history database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.TranscriptDir}
	if strings.TrimSpace(c.Paths.HistoryDB) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the host-wide encode lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "videomixer.lock")
}

// DiagnosticLogPath returns the application log file location.
func (c *Config) DiagnosticLogPath() string {
	return filepath.Join(c.Paths.LogDir, "videomixer.log")
}

// ExpandPath resolves a leading "~" to the home directory and returns a
// cleaned absolute path. The empty string is returned unchanged.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// Sample returns the annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, creating parent
// directories.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
