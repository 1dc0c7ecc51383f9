// Package librosa wraps librosa's tempo-based beat tracker, run as a Python
// subprocess via uvx. It was evaluated against the madmom tracker and kept as
// an alternative backend; it reports plain beats and onsets but no downbeat
// information.
package librosa
