package madmom

// Config captures runtime settings for the madmom downbeat tracker.
type Config struct {
	// FPS is the analysis frame rate for the RNN activation function.
	FPS int
	// BeatsPerBar is the assumed number of beats per measure.
	BeatsPerBar int
}

// Madmom configuration constants.
const (
	DefaultFPS         = 100
	DefaultBeatsPerBar = 4
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	PythonCommand = "python"
	Package       = "madmom"
)

// trackerScript runs the RNN downbeat processor followed by the DBN tracker
// and writes the raw (time, position) pairs as JSON. Position 1 is the
// downbeat, higher positions count through the bar.
const trackerScript = `import json, sys
from madmom.features.downbeats import RNNDownBeatProcessor, DBNDownBeatTrackingProcessor
audio, dest, fps, beats_per_bar = sys.argv[1], sys.argv[2], int(sys.argv[3]), int(sys.argv[4])
act = RNNDownBeatProcessor(fps=fps)(audio)
beats = DBNDownBeatTrackingProcessor(beats_per_bar=[beats_per_bar], fps=fps)(act)
with open(dest, "w") as f:
    json.dump([[float(t), int(p)] for t, p in beats], f)
`
