// Package madmom wraps the madmom RNNDownBeatProcessor + DBNDownBeatTracking
// pipeline, run as a Python subprocess via uvx. This is the adopted detection
// backend: the only one that reports downbeats and beat positions.
package madmom
