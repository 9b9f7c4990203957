package player

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeTestWAV writes a minimal valid PCM WAV file (16-bit mono, a handful
// of silent frames) so decoders.NewDecoder can actually open it.
func writeTestWAV(t *testing.T, path string) {
	t.Helper()
	const frames = 32
	dataSize := frames * 2
	buf := make([]byte, 0, 44+dataSize)

	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, 44100)
	buf = binary.LittleEndian.AppendUint32(buf, 44100*2) // byte rate
	buf = binary.LittleEndian.AppendUint16(buf, 2)       // block align
	buf = binary.LittleEndian.AppendUint16(buf, 16)      // bits per sample

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	buf = append(buf, make([]byte, dataSize)...)

	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("failed to write test WAV: %v", err)
	}
}

func TestGainForVolumeCurve(t *testing.T) {
	cases := []struct {
		volume int
		want   float64
	}{
		{0, 0},
		{100, 1},
		{200, 1}, // clamps above 100
		{-5, 0},  // clamps below 0
	}
	for _, c := range cases {
		got := float64(gainForVolume(c.volume))
		if math.Abs(got-c.want) > 1e-6 {
			t.Errorf("gainForVolume(%d) = %v, want %v", c.volume, got, c.want)
		}
	}

	// Monotonic and inside (0,1) for a mid-range volume.
	mid := float64(gainForVolume(50))
	if mid <= 0 || mid >= 1 {
		t.Errorf("gainForVolume(50) = %v, want strictly between 0 and 1", mid)
	}
	lower := float64(gainForVolume(25))
	if !(lower < mid) {
		t.Errorf("gainForVolume should be monotonic: gain(25)=%v, gain(50)=%v", lower, mid)
	}
}

func TestManagerShuffleTogglePreservesQueueIndex(t *testing.T) {
	m, _ := NewManager(44100, 2, nil, nil)
	defer m.Close()

	paths := []string{"a.flac", "b.flac", "c.flac", "d.flac"}
	if !m.OpenQueue(paths, 2, ShuffleNotEnabled) {
		t.Fatal("OpenQueue failed")
	}

	m.SetShuffleMode(ShuffleEnabled)
	if m.queue.Current() != "c.flac" {
		t.Fatalf("after shuffle, Current() = %q, want c.flac", m.queue.Current())
	}

	m.SetShuffleMode(ShuffleNotEnabled)
	if m.queue.Current() != "c.flac" {
		t.Fatalf("after unshuffle, Current() = %q, want c.flac", m.queue.Current())
	}
	if m.queue.CurrentIndex() != 2 {
		t.Fatalf("after unshuffle, CurrentIndex() = %d, want 2", m.queue.CurrentIndex())
	}
}

func TestPlaySkipsTracksThatFailToOpen(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wav")
	writeTestWAV(t, good)

	m, _ := NewManager(44100, 1, nil, nil)
	defer m.Close()

	paths := []string{
		filepath.Join(dir, "missing1.flac"),
		filepath.Join(dir, "missing2.flac"),
		good,
	}
	if !m.OpenQueue(paths, 0, ShuffleNotEnabled) {
		t.Fatal("OpenQueue failed")
	}

	if err := m.Play(); err != nil {
		t.Fatalf("Play() should skip past the unopenable tracks and play %q, got err: %v", good, err)
	}
	if m.queue.Current() != good {
		t.Fatalf("after Play(), Current() = %q, want %q", m.queue.Current(), good)
	}
	if m.currentState() != StatePlaying {
		t.Fatalf("after Play(), state = %v, want StatePlaying", m.currentState())
	}
}

func TestPlayReturnsErrorWhenQueueEntirelyUnplayable(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(44100, 1, nil, nil)
	defer m.Close()

	paths := []string{
		filepath.Join(dir, "missing1.flac"),
		filepath.Join(dir, "missing2.flac"),
	}
	if !m.OpenQueue(paths, 0, ShuffleNotEnabled) {
		t.Fatal("OpenQueue failed")
	}

	if err := m.Play(); err == nil {
		t.Fatal("Play() should return an error when no track in the queue can be opened")
	}
}

func TestManagerOpenQueueRejectsOutOfRangeStart(t *testing.T) {
	m, _ := NewManager(44100, 2, nil, nil)
	defer m.Close()

	if m.OpenQueue([]string{"a.flac"}, 5, ShuffleNotEnabled) {
		t.Fatal("OpenQueue should reject an out-of-range start index")
	}
}
