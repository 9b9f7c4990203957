package player

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/drgolem/directoryplayer/internal/ring"
)

// fakeDecoder produces totalFrames of silence across fixed-size packets,
// then io.EOF, with no native seek support needed for these tests.
type fakeDecoder struct {
	channels     int
	packetFrames int
	remaining    int
	planar       [][]float32
}

func newFakeDecoder(channels, packetFrames, totalFrames int) *fakeDecoder {
	planar := make([][]float32, channels)
	for ch := range planar {
		planar[ch] = make([]float32, packetFrames)
	}
	return &fakeDecoder{channels: channels, packetFrames: packetFrames, remaining: totalFrames, planar: planar}
}

func (f *fakeDecoder) Open(string) error { return nil }
func (f *fakeDecoder) Close() error      { return nil }
func (f *fakeDecoder) Format() (int, int, int64) {
	return 44100, f.channels, 0
}
func (f *fakeDecoder) DecodePacket() ([][]float32, error) {
	if f.remaining <= 0 {
		return nil, io.EOF
	}
	n := f.packetFrames
	if n > f.remaining {
		n = f.remaining
	}
	f.remaining -= n
	out := make([][]float32, f.channels)
	for ch := range out {
		out[ch] = f.planar[ch][:n]
	}
	return out, nil
}
func (f *fakeDecoder) Seek(target int64) (int64, error) { return target, nil }

func TestDecodeWorkerEmitsFixedSizeBlocksThenEOF(t *testing.T) {
	const blockSize = 1024
	decoder := newFakeDecoder(2, 1000, 3000)
	toStream := ring.New[*DecodedBlock](16384)
	fromStream := ring.New[WorkerCommand](16384)

	w, err := NewDecodeWorker(decoder, 44100, 44100, 2, blockSize, 1, toStream, fromStream, slog.Default())
	if err != nil {
		t.Fatalf("NewDecodeWorker: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	var blocks []*DecodedBlock
	deadline := time.Now().Add(2 * time.Second)
	for len(blocks) < 3 && time.Now().Before(deadline) {
		if b, ok := toStream.TryPop(); ok {
			blocks = append(blocks, b)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	fromStream.TryPush(WorkerCommand{Kind: WorkerCmdDone})
	<-done

	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3 (two full + one EOF remainder)", len(blocks))
	}
	for i, b := range blocks[:2] {
		if b.NumFrames != blockSize {
			t.Errorf("block %d: NumFrames = %d, want %d", i, b.NumFrames, blockSize)
		}
		if b.IsEOF {
			t.Errorf("block %d: unexpected IsEOF", i)
		}
	}
	last := blocks[2]
	if !last.IsEOF {
		t.Error("final block should have IsEOF = true")
	}
	wantLast := 3000 - 2*blockSize
	if last.NumFrames != wantLast {
		t.Errorf("final block NumFrames = %d, want %d", last.NumFrames, wantLast)
	}
}
