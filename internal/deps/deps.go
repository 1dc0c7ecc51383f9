package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"cadence/internal/config"
)

// Requirement defines an external dependency cadence relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Defaults returns the external binaries cadence needs at runtime.
func Defaults(cfg *config.Config) []Requirement {
	uvx := "uvx"
	ffprobe := "ffprobe"
	if cfg != nil {
		uvx = cfg.UVXBinary()
		ffprobe = cfg.FFprobeBinary()
	}
	return []Requirement{
		{
			Name:        "uvx",
			Command:     uvx,
			Description: "Runs the Python detection backends (madmom, librosa)",
		},
		{
			Name:        "ffprobe",
			Command:     ffprobe,
			Description: "Probes audio files before detection",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
