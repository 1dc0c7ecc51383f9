package librosa

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"cadence/internal/detect"
	"cadence/internal/services"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	PythonCommand = "python"
	Package       = "librosa"
)

// analyzeScript estimates tempo, beat times, and onset times in one pass and
// writes them as a single JSON object.
const analyzeScript = `import json, sys
import librosa
audio, dest = sys.argv[1], sys.argv[2]
y, sr = librosa.load(audio, sr=None)
tempo, beat_frames = librosa.beat.beat_track(y=y, sr=sr)
beat_times = librosa.frames_to_time(beat_frames, sr=sr)
onset_frames = librosa.onset.onset_detect(y=y, sr=sr)
onset_times = librosa.frames_to_time(onset_frames, sr=sr)
with open(dest, "w") as f:
    json.dump({
        "tempo": float(tempo),
        "beats": [float(t) for t in beat_times],
        "onsets": [float(t) for t in onset_times],
    }, f)
`

// Analysis holds the full output of one librosa run.
type Analysis struct {
	Tempo  float64   `json:"tempo"`
	Beats  []float64 `json:"beats"`
	Onsets []float64 `json:"onsets"`
}

// Service runs the librosa beat tracker, the evaluated non-deep-learning
// backend. It cannot distinguish downbeats; every event carries Downbeat
// false and no beat position.
type Service struct {
	uvxBinary     string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a librosa service.
func NewService(uvxBinary string) *Service {
	if uvxBinary == "" {
		uvxBinary = UVXCommand
	}
	return &Service{uvxBinary: uvxBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Name identifies the backend in export documents and cache keys.
func (s *Service) Name() string { return "librosa" }

// Params returns a stable fingerprint of the settings that influence results.
// The librosa backend runs with library defaults only.
func (s *Service) Params() string { return "defaults" }

// Detect runs the beat tracker and returns beat events in ascending time
// order.
func (s *Service) Detect(ctx context.Context, audioPath string) ([]detect.Event, error) {
	analysis, err := s.Analyze(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	events := make([]detect.Event, 0, len(analysis.Beats))
	for _, t := range analysis.Beats {
		events = append(events, detect.Event{Time: t})
	}
	detect.SortEvents(events)
	return events, nil
}

// Analyze runs the full tempo/beat/onset estimation.
func (s *Service) Analyze(ctx context.Context, audioPath string) (Analysis, error) {
	var analysis Analysis
	if strings.TrimSpace(audioPath) == "" {
		return analysis, services.Wrap(services.ErrDetection, "librosa", "analyze", "audio path required", nil)
	}

	workDir, err := os.MkdirTemp("", "cadence-librosa-")
	if err != nil {
		return analysis, services.Wrap(services.ErrDetection, "librosa", "workdir", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	dest := filepath.Join(workDir, "analysis.json")
	args := []string{"--from", Package, PythonCommand, "-c", analyzeScript, audioPath, dest}
	if err := s.run(ctx, s.uvxBinary, args...); err != nil {
		return analysis, services.Wrap(services.ErrDetection, "librosa", "beat_track", "beat tracker failed", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return analysis, services.Wrap(services.ErrDetection, "librosa", "parse", "read tracker output", err)
	}
	if err := json.Unmarshal(data, &analysis); err != nil {
		return analysis, services.Wrap(services.ErrDetection, "librosa", "parse", "decode tracker output", err)
	}
	return analysis, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
