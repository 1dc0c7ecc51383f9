package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// ProbeRunner returns an ffprobe runner that reports one audio stream with
// the given sample rate, regardless of input.
func ProbeRunner(sampleRate int) func(ctx context.Context, binary string, args ...string) ([]byte, error) {
	payload := fmt.Sprintf(`{
		"streams": [{"index": 0, "codec_type": "audio", "codec_name": "pcm_s16le", "sample_rate": "%d", "channels": 2}],
		"format": {"nb_streams": 1, "duration": "60.0", "format_name": "wav"}
	}`, sampleRate)
	return func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(payload), nil
	}
}
