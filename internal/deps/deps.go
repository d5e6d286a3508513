package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const versionTimeout = 5 * time.Second

// Requirement defines an external tool videomixer relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// MinMajor rejects releases older than this major version. Builds whose
	// banner carries no release number (git snapshots) always pass.
	MinMajor int
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Version     string
	Major       int
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves every requirement concurrently and returns the
// results in requirement order.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	var g errgroup.Group
	for i, req := range requirements {
		i, req := i, req
		g.Go(func() error {
			results[i] = check(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func check(ctx context.Context, req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Path = path
	status.Version = Version(ctx, path)
	status.Major = MajorVersion(status.Version)
	if req.MinMajor > 0 && status.Major > 0 && status.Major < req.MinMajor {
		status.Detail = fmt.Sprintf("%s is older than required major version %d", status.Version, req.MinMajor)
		return status
	}
	status.Available = true
	return status
}

// Version returns the first line of `<binary> -version`, or "" when the tool
// does not answer within a few seconds.
func Version(ctx context.Context, binary string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

var releasePattern = regexp.MustCompile(`version n?(\d+)\.`)

// MajorVersion extracts the release major from an ffmpeg-style banner such
// as "ffmpeg version 6.1.1-3ubuntu5". It returns 0 when there is none.
func MajorVersion(banner string) int {
	m := releasePattern.FindStringSubmatch(banner)
	if m == nil {
		return 0
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return major
}

// MissingRequired returns the names of unavailable non-optional tools.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
