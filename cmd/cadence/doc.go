// Package main hosts the cadence CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the beat export operation plus the
// supporting maintenance commands: ad-hoc detection, dependency/status
// inspection, configuration scaffolding, and cache upkeep. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
