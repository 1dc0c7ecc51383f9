package madmom

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"cadence/internal/detect"
	"cadence/internal/services"
)

// Service runs the madmom RNN downbeat tracker, the adopted detection
// backend. The tracker is executed as a Python subprocess via uvx; results
// are exchanged through a JSON file.
type Service struct {
	cfg           Config
	uvxBinary     string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a madmom service with the given configuration.
func NewService(cfg Config, uvxBinary string) *Service {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.BeatsPerBar <= 0 {
		cfg.BeatsPerBar = DefaultBeatsPerBar
	}
	if uvxBinary == "" {
		uvxBinary = UVXCommand
	}
	return &Service{cfg: cfg, uvxBinary: uvxBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Name identifies the backend in export documents and cache keys.
func (s *Service) Name() string { return "madmom" }

// Params returns a stable fingerprint of the settings that influence results.
func (s *Service) Params() string {
	return fmt.Sprintf("fps=%d,beats_per_bar=%d", s.cfg.FPS, s.cfg.BeatsPerBar)
}

// Detect runs the tracker against audioPath and returns beat events in
// ascending time order.
func (s *Service) Detect(ctx context.Context, audioPath string) ([]detect.Event, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrDetection, "madmom", "detect", "audio path required", nil)
	}

	workDir, err := os.MkdirTemp("", "cadence-madmom-")
	if err != nil {
		return nil, services.Wrap(services.ErrDetection, "madmom", "workdir", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	dest := filepath.Join(workDir, "beats.json")
	args := s.buildArgs(audioPath, dest)
	if err := s.run(ctx, s.uvxBinary, args...); err != nil {
		return nil, services.Wrap(services.ErrDetection, "madmom", "tracker", "downbeat tracker failed", err)
	}

	events, err := loadEvents(dest)
	if err != nil {
		return nil, services.Wrap(services.ErrDetection, "madmom", "parse", "read tracker output", err)
	}
	detect.SortEvents(events)
	return events, nil
}

func (s *Service) buildArgs(audioPath, dest string) []string {
	return []string{
		"--from", Package,
		PythonCommand, "-c", trackerScript,
		audioPath,
		dest,
		strconv.Itoa(s.cfg.FPS),
		strconv.Itoa(s.cfg.BeatsPerBar),
	}
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

// loadEvents parses the tracker's JSON output: an array of [time, position]
// pairs where position 1 marks the downbeat.
func loadEvents(path string) ([]detect.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse madmom json: %w", err)
	}
	events := make([]detect.Event, 0, len(pairs))
	for _, pair := range pairs {
		position := int(pair[1])
		events = append(events, detect.Event{
			Time:          pair[0],
			Downbeat:      position == 1,
			BeatInMeasure: position,
		})
	}
	return events, nil
}
