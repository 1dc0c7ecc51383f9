// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The exporter uses it as its decode probe: an input that ffprobe cannot
// inspect, or that carries no audio stream, is rejected before any detection
// backend runs. The first audio stream's sample rate is recorded in the
// export document.
package ffprobe
