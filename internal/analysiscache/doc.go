// Package analysiscache persists detection results in SQLite, keyed by the
// audio file's content digest plus the backend and its parameters. A hit lets
// the exporter skip the comparatively expensive Python backend run; any cache
// failure degrades to a miss and a fresh detection.
package analysiscache
