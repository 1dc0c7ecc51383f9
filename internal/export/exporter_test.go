package export_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/analysiscache"
	"cadence/internal/detect"
	"cadence/internal/export"
	"cadence/internal/logging"
	"cadence/internal/services"
	"cadence/internal/testsupport"
)

// stubBackend returns a fixed event sequence and counts invocations.
type stubBackend struct {
	events []detect.Event
	err    error
	calls  int
}

func (s *stubBackend) Name() string   { return "stub" }
func (s *stubBackend) Params() string { return "fixed" }

func (s *stubBackend) Detect(ctx context.Context, audioPath string) ([]detect.Event, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]detect.Event(nil), s.events...), nil
}

func newExporter(t *testing.T, backend export.Backend) *export.Exporter {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	exporter := export.NewExporter(cfg, backend, logging.NewNop())
	exporter.WithProbeRunner(testsupport.ProbeRunner(44100))
	return exporter
}

func TestExportWritesOrderedDocument(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{
		{Time: 0.5, Downbeat: true, BeatInMeasure: 1},
		{Time: 1.0, BeatInMeasure: 2},
		{Time: 1.5, Downbeat: true, BeatInMeasure: 1},
	}}
	exporter := newExporter(t, backend)

	dir := t.TempDir()
	audio := filepath.Join(dir, "song.wav")
	testsupport.WriteFile(t, audio, 256)
	out := filepath.Join(dir, "beats.json")

	doc, err := exporter.Export(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(doc.Beats) != len(backend.events) {
		t.Fatalf("expected %d beats, got %d", len(backend.events), len(doc.Beats))
	}
	if doc.SampleRate != 44100 {
		t.Fatalf("expected probed sample rate, got %d", doc.SampleRate)
	}
	if doc.Backend != "stub" {
		t.Fatalf("unexpected backend label: %q", doc.Backend)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var written export.Document
	if err := json.Unmarshal(data, &written); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(written.Beats) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(written.Beats))
	}
	if !written.Beats[0].Downbeat || written.Beats[1].Downbeat || !written.Beats[2].Downbeat {
		t.Fatalf("downbeat flags wrong: %+v", written.Beats)
	}
	for i := 1; i < len(written.Beats); i++ {
		if written.Beats[i].Time < written.Beats[i-1].Time {
			t.Fatalf("entries out of order: %+v", written.Beats)
		}
	}
	if written.Beats[0].Measure != 1 || written.Beats[2].Measure != 2 {
		t.Fatalf("measure numbering wrong: %+v", written.Beats)
	}
}

func TestExportIsByteIdempotent(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{
		{Time: 0.516, Downbeat: true, BeatInMeasure: 1},
		{Time: 1.031, BeatInMeasure: 2},
	}}
	exporter := newExporter(t, backend)

	dir := t.TempDir()
	audio := filepath.Join(dir, "song.wav")
	testsupport.WriteFile(t, audio, 128)
	out := filepath.Join(dir, "beats.json")

	if _, err := exporter.Export(context.Background(), audio, out); err != nil {
		t.Fatalf("first export: %v", err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := exporter.Export(context.Background(), audio, out); err != nil {
		t.Fatalf("second export: %v", err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("re-running export changed output:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestExportSortsUnorderedBackendOutput(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{
		{Time: 1.5, Downbeat: true, BeatInMeasure: 1},
		{Time: 0.5, Downbeat: true, BeatInMeasure: 1},
	}}
	exporter := newExporter(t, backend)

	dir := t.TempDir()
	audio := filepath.Join(dir, "song.wav")
	testsupport.WriteFile(t, audio, 64)
	out := filepath.Join(dir, "beats.json")

	doc, err := exporter.Export(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Beats[0].Time != 0.5 || doc.Beats[1].Time != 1.5 {
		t.Fatalf("expected sorted beats, got %+v", doc.Beats)
	}
}

func TestExportRoundsTimestamps(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{{Time: 0.518999, Downbeat: true, BeatInMeasure: 1}}}
	exporter := newExporter(t, backend)

	dir := t.TempDir()
	audio := filepath.Join(dir, "song.wav")
	testsupport.WriteFile(t, audio, 64)
	out := filepath.Join(dir, "beats.json")

	doc, err := exporter.Export(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Beats[0].Time != 0.52 {
		t.Fatalf("expected timestamp rounded to 2 decimals, got %v", doc.Beats[0].Time)
	}
}

func TestExportEmptyDetection(t *testing.T) {
	backend := &stubBackend{}
	cfg := testsupport.NewConfig(t, testsupport.WithCacheDisabled())
	exporter := export.NewExporter(cfg, backend, logging.NewNop())
	exporter.WithProbeRunner(testsupport.ProbeRunner(44100))

	dir := t.TempDir()
	audio := filepath.Join(dir, "silence.wav")
	testsupport.WriteFile(t, audio, 64)
	out := filepath.Join(dir, "beats.json")

	doc, err := exporter.Export(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(doc.Beats) != 0 {
		t.Fatalf("expected no beats, got %+v", doc.Beats)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"beats": []`)) {
		t.Fatalf("expected empty beats array in output, got %s", data)
	}
}

func TestExportMissingInput(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{{Time: 0.5}}}
	exporter := newExporter(t, backend)

	dir := t.TempDir()
	out := filepath.Join(dir, "beats.json")

	_, err := exporter.Export(context.Background(), filepath.Join(dir, "missing.wav"), out)
	if !errors.Is(err, services.ErrInputNotFound) {
		t.Fatalf("expected input-not-found error, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("no output file may be created when input is missing")
	}
	if backend.calls != 0 {
		t.Fatalf("backend must not run for missing input, ran %d times", backend.calls)
	}
}

func TestExportDecodeFailure(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{{Time: 0.5}}}
	cfg := testsupport.NewConfig(t)
	exporter := export.NewExporter(cfg, backend, logging.NewNop())
	exporter.WithProbeRunner(func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	})

	dir := t.TempDir()
	audio := filepath.Join(dir, "broken.wav")
	testsupport.WriteFile(t, audio, 64)
	out := filepath.Join(dir, "beats.json")

	_, err := exporter.Export(context.Background(), audio, out)
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("no output file may be created on decode failure")
	}
}

func TestExportRejectsInputWithoutAudioStream(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{{Time: 0.5}}}
	cfg := testsupport.NewConfig(t)
	exporter := export.NewExporter(cfg, backend, logging.NewNop())
	exporter.WithProbeRunner(func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(`{"streams": [{"codec_type": "video"}], "format": {"nb_streams": 1}}`), nil
	})

	dir := t.TempDir()
	audio := filepath.Join(dir, "video.mkv")
	testsupport.WriteFile(t, audio, 64)

	_, err := exporter.Export(context.Background(), audio, filepath.Join(dir, "beats.json"))
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestExportDetectionFailure(t *testing.T) {
	backend := &stubBackend{err: services.Wrap(services.ErrDetection, "stub", "detect", "crashed", nil)}
	exporter := newExporter(t, backend)

	dir := t.TempDir()
	audio := filepath.Join(dir, "song.wav")
	testsupport.WriteFile(t, audio, 64)
	out := filepath.Join(dir, "beats.json")

	_, err := exporter.Export(context.Background(), audio, out)
	if !errors.Is(err, services.ErrDetection) {
		t.Fatalf("expected detection error, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("no output file may be created on detection failure")
	}
}

func TestExportWriteFailureLeavesExistingFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}
	backend := &stubBackend{events: []detect.Event{{Time: 0.5, Downbeat: true, BeatInMeasure: 1}}}
	exporter := newExporter(t, backend)

	dir := t.TempDir()
	audio := filepath.Join(dir, "song.wav")
	testsupport.WriteFile(t, audio, 64)

	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(outDir, "beats.json")
	if err := os.WriteFile(out, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(outDir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(outDir, 0o755) })

	_, err := exporter.Export(context.Background(), audio, out)
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	data, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(data) != "previous" {
		t.Fatalf("pre-existing output modified: %q", data)
	}
}

func TestExportUsesCacheOnSecondRun(t *testing.T) {
	backend := &stubBackend{events: []detect.Event{
		{Time: 0.5, Downbeat: true, BeatInMeasure: 1},
		{Time: 1.0, BeatInMeasure: 2},
	}}
	cfg := testsupport.NewConfig(t)
	exporter := export.NewExporter(cfg, backend, logging.NewNop())
	exporter.WithProbeRunner(testsupport.ProbeRunner(48000))

	cache, err := analysiscache.Open(cfg.Paths.CacheDir, logging.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()
	exporter.WithCache(cache)

	dir := t.TempDir()
	audio := filepath.Join(dir, "song.wav")
	testsupport.WriteFile(t, audio, 512)
	out := filepath.Join(dir, "beats.json")

	first, err := exporter.Export(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("first export: %v", err)
	}
	second, err := exporter.Export(context.Background(), audio, out)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}

	if backend.calls != 1 {
		t.Fatalf("expected one backend run, got %d", backend.calls)
	}
	if len(first.Beats) != len(second.Beats) {
		t.Fatalf("cache replay changed document: %+v vs %+v", first.Beats, second.Beats)
	}
}
