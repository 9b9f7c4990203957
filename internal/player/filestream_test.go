package player

import (
	"log/slog"
	"testing"
	"time"

	"github.com/drgolem/directoryplayer/internal/ring"
)

// newTestFileStream builds a FileStream around a fakeDecoder without going
// through decoders.NewDecoder (which needs a real file on disk).
func newTestFileStream(t *testing.T, channels, packetFrames, totalFrames, targetRate int) *FileStream {
	t.Helper()
	decoder := newFakeDecoder(channels, packetFrames, totalFrames)
	rate, ch, _ := decoder.Format()

	firstPacket, err := decoder.DecodePacket()
	if err != nil {
		t.Fatalf("priming DecodePacket: %v", err)
	}

	blockSize := MinBlockSize
	if len(firstPacket[0]) > blockSize {
		blockSize = len(firstPacket[0])
	}

	toStream := ring.New[*DecodedBlock](16384)
	toWorker := ring.New[WorkerCommand](16384)

	worker, err := NewDecodeWorker(decoder, rate, targetRate, ch, blockSize, 1, toStream, toWorker, slog.Default())
	if err != nil {
		t.Fatalf("NewDecodeWorker: %v", err)
	}
	worker.fillAccumulator(firstPacket, len(firstPacket[0]))

	readBuffer := make([][]float32, ch)
	for i := range readBuffer {
		readBuffer[i] = make([]float32, ReadBufferSize)
	}

	fs := &FileStream{
		worker:        worker,
		toStream:      toStream,
		toWorker:      toWorker,
		streamID:      1,
		channels:      ch,
		resampleRatio: float64(targetRate) / float64(rate),
		timeBase:      rate,
		readBuffer:    readBuffer,
		metadata:      &Metadata{Title: "test"},
	}

	go worker.Run()
	t.Cleanup(fs.Close)

	return fs
}

func TestFileStreamReadDeliversAllFramesThenEOF(t *testing.T) {
	fs := newTestFileStream(t, 2, 500, 2500, 44100)

	var total int
	var gotEOF bool
	deadline := time.Now().Add(3 * time.Second)
	for !gotEOF && time.Now().Before(deadline) {
		data, ok := fs.Read(1024)
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		total += data.Frames
		if data.ReachedEndOfFile {
			gotEOF = true
		}
	}

	if !gotEOF {
		t.Fatal("never observed end of file")
	}
	if total != 2500 {
		t.Errorf("total frames read = %d, want 2500", total)
	}
}

func TestFileStreamPlayheadAdvancesWithReads(t *testing.T) {
	fs := newTestFileStream(t, 1, 2000, 4000, 44100)

	deadline := time.Now().Add(3 * time.Second)
	var data ReadData
	var ok bool
	for time.Now().Before(deadline) {
		data, ok = fs.Read(512)
		if ok && data.Frames > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !ok || data.Frames == 0 {
		t.Fatal("no frames ever became available")
	}
	if fs.Playhead() != int64(data.Frames) {
		t.Errorf("Playhead() = %d, want %d", fs.Playhead(), data.Frames)
	}
}
