package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"cadence/internal/analysiscache"
	"cadence/internal/config"
	"cadence/internal/detect"
	"cadence/internal/fileutil"
	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/services"
)

// Backend is a detection backend the exporter can drive: a Detector plus a
// stable fingerprint of its result-influencing parameters for cache keys.
type Backend interface {
	detect.Detector
	Params() string
}

// Beat is one exported beat event.
type Beat struct {
	Time          float64 `json:"time"`
	Downbeat      bool    `json:"downbeat"`
	Measure       int     `json:"measure"`
	BeatInMeasure int     `json:"beatInMeasure"`
}

// Document is the export artifact written to the output path. Field content
// is fully determined by the input audio and backend settings, so re-running
// an export with a deterministic backend reproduces the file byte for byte.
type Document struct {
	Source     string `json:"source"`
	SampleRate int    `json:"sampleRate"`
	Backend    string `json:"backend"`
	Beats      []Beat `json:"beats"`
}

// Exporter converts one audio file into an ordered beat document.
type Exporter struct {
	cfg         *config.Config
	backend     Backend
	cache       *analysiscache.Cache
	probeRunner ffprobe.Runner
	logger      *slog.Logger
}

// NewExporter wires an exporter around the given backend.
func NewExporter(cfg *config.Config, backend Backend, logger *slog.Logger) *Exporter {
	return &Exporter{
		cfg:     cfg,
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "export"),
	}
}

// WithCache attaches a detection result cache.
func (e *Exporter) WithCache(cache *analysiscache.Cache) {
	e.cache = cache
}

// WithProbeRunner sets a custom ffprobe runner (for testing).
func (e *Exporter) WithProbeRunner(runner ffprobe.Runner) {
	e.probeRunner = runner
}

// Export detects beats in audioPath and writes the document to outputPath.
// The write is all-or-nothing: on any failure no partial file is left behind
// and a pre-existing file at outputPath stays untouched.
func (e *Exporter) Export(ctx context.Context, audioPath, outputPath string) (*Document, error) {
	start := time.Now()
	logger := e.logger.With(logging.String(logging.FieldRequestID, uuid.NewString()))

	if _, err := os.Stat(audioPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrInputNotFound, "export", "stat", fmt.Sprintf("audio file %s does not exist", audioPath), nil)
		}
		return nil, services.Wrap(services.ErrInputNotFound, "export", "stat", "audio file is not readable", err)
	}

	probe, err := ffprobe.Inspect(ctx, e.cfg.FFprobeBinary(), audioPath, e.probeRunner)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "export", "probe", "audio file could not be inspected", err)
	}
	if probe.AudioStreamCount() == 0 {
		return nil, services.Wrap(services.ErrDecode, "export", "probe", fmt.Sprintf("%s contains no audio stream", audioPath), nil)
	}

	events, fromCache, digest := e.cachedEvents(ctx, logger, audioPath)
	if !fromCache {
		detected, err := e.backend.Detect(ctx, audioPath)
		if err != nil {
			return nil, err
		}
		events = detected
		if e.cache != nil && digest != "" {
			key := analysiscache.Key{AudioSHA256: digest, Backend: e.backend.Name(), Params: e.backend.Params()}
			if storeErr := e.cache.Store(ctx, key, events); storeErr != nil {
				logger.Warn("failed to cache detection result", logging.Error(storeErr))
			}
		}
	}

	detect.SortEvents(events)
	doc := e.buildDocument(audioPath, probe.SampleRate(), events)

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrWrite, "export", "encode", "encode document", err)
	}
	payload = append(payload, '\n')

	if err := fileutil.WriteFileAtomic(outputPath, payload, 0o644); err != nil {
		return nil, services.Wrap(services.ErrWrite, "export", "finalize", fmt.Sprintf("write %s", outputPath), err)
	}

	logger.Info("beat document written",
		logging.String("source", audioPath),
		logging.String("destination", outputPath),
		logging.String("backend", e.backend.Name()),
		logging.Int("beats", len(doc.Beats)),
		logging.Bool("cache_hit", fromCache),
		logging.Duration("elapsed", time.Since(start)),
	)
	return doc, nil
}

// cachedEvents attempts a cache lookup. It returns (events, true, digest) on
// a hit and (nil, false, digest) on a miss; digest is empty when hashing
// failed or the cache is disabled.
func (e *Exporter) cachedEvents(ctx context.Context, logger *slog.Logger, audioPath string) ([]detect.Event, bool, string) {
	if e.cache == nil {
		return nil, false, ""
	}
	digest, err := fileutil.Sha256File(audioPath)
	if err != nil {
		logger.Warn("failed to hash audio file, skipping cache", logging.Error(err))
		return nil, false, ""
	}
	key := analysiscache.Key{AudioSHA256: digest, Backend: e.backend.Name(), Params: e.backend.Params()}
	if events, hit := e.cache.Lookup(ctx, key); hit {
		logger.Debug("detection result served from cache",
			logging.String("audio_sha256", digest),
			logging.Int("beats", len(events)))
		return events, true, digest
	}
	return nil, false, digest
}

func (e *Exporter) buildDocument(source string, sampleRate int, events []detect.Event) *Document {
	measures := detect.NumberMeasures(events)
	beats := make([]Beat, len(events))
	for i, ev := range events {
		beats[i] = Beat{
			Time:          roundTo(ev.Time, e.cfg.Detection.TimeDecimals),
			Downbeat:      ev.Downbeat,
			Measure:       measures[i].Number,
			BeatInMeasure: measures[i].BeatInMeasure,
		}
	}
	return &Document{
		Source:     source,
		SampleRate: sampleRate,
		Backend:    e.backend.Name(),
		Beats:      beats,
	}
}

func roundTo(value float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(value*scale) / scale
}
