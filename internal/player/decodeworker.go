package player

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/drgolem/directoryplayer/internal/resampler"
	"github.com/drgolem/directoryplayer/internal/ring"
	"github.com/drgolem/directoryplayer/pkg/types"
)

// MinBlockSize is the floor applied to a DecodeWorker's block size,
// regardless of the decoder's own per-packet frame capacity.
const MinBlockSize = 1024

// DecodeWorker owns the format reader/decoder for one file. It produces
// DecodedBlocks of exactly blockSize source frames (silence-padded on
// EOF), resamples to the target rate when needed, and obeys seek/dispose
// messages from its FileStream. It runs on its own goroutine (Run), one
// per live FileStream (§5 T5).
type DecodeWorker struct {
	decoder    types.AudioDecoder
	blockSize  int
	channels   int
	sourceRate int
	targetRate int
	ratio      float64
	resamp     *resampler.Resampler

	toStream   *ring.Ring[*DecodedBlock]
	fromStream *ring.Ring[WorkerCommand]

	accum      [][]float32
	accumCount int
	streamID   uint64
	seekDelta  int64
	eofEmitted bool

	logger *slog.Logger
}

// NewDecodeWorker constructs a worker for an already-open decoder.
// blockSize should derive from the decoder's packet frame capacity,
// floored at MinBlockSize by the caller. If sourceRate != targetRate, a
// resampler is created with the given oversampling-equivalent block size.
func NewDecodeWorker(
	decoder types.AudioDecoder,
	sourceRate, targetRate, channels, blockSize int,
	streamID uint64,
	toStream *ring.Ring[*DecodedBlock],
	fromStream *ring.Ring[WorkerCommand],
	logger *slog.Logger,
) (*DecodeWorker, error) {
	w := &DecodeWorker{
		decoder:    decoder,
		blockSize:  blockSize,
		channels:   channels,
		sourceRate: sourceRate,
		targetRate: targetRate,
		ratio:      float64(targetRate) / float64(sourceRate),
		toStream:   toStream,
		fromStream: fromStream,
		streamID:   streamID,
		logger:     logger,
	}
	w.resetAccum()

	if sourceRate != targetRate {
		r, err := resampler.New(sourceRate, targetRate, channels, blockSize)
		if err != nil {
			return nil, err
		}
		w.resamp = r
	}
	return w, nil
}

func (w *DecodeWorker) resetAccum() {
	w.accum = make([][]float32, w.channels)
	for ch := range w.accum {
		w.accum[ch] = make([]float32, w.blockSize)
	}
	w.accumCount = 0
}

// Run is the worker's main loop. It returns when it receives
// WorkerCmdDone, or when a fatal read or seek error terminates the
// stream; before returning on such an error it pushes a final EOF block,
// so the owning FileStream reports end of file once the blocks ahead of
// it have been read.
func (w *DecodeWorker) Run() {
	defer w.decoder.Close()

	for {
		if w.drainControl() {
			return
		}

		if w.eofEmitted || w.toStream.Full() {
			time.Sleep(time.Millisecond)
			continue
		}

		planar, err := w.decoder.DecodePacket()
		if err != nil {
			if errors.Is(err, io.EOF) {
				w.emitEOFBlock()
				w.eofEmitted = true
				continue
			}
			w.logger.Error("decode worker: fatal read error, terminating", "err", err)
			w.emitEOFBlock()
			return
		}

		frames := 0
		if len(planar) > 0 {
			frames = len(planar[0])
		}

		if w.seekDelta > 0 {
			if int64(frames) < w.seekDelta {
				w.seekDelta -= int64(frames)
				continue
			}
			offset := int(w.seekDelta)
			trimmed := make([][]float32, len(planar))
			for ch := range planar {
				trimmed[ch] = planar[ch][offset:]
			}
			planar = trimmed
			frames -= offset
			w.seekDelta = 0
		}

		w.fillAccumulator(planar, frames)
	}
}

// drainControl processes every pending stream→worker message without
// blocking. It returns true if a Done message was observed, or if a seek
// failed (after pushing a final EOF block for the new stream epoch).
func (w *DecodeWorker) drainControl() bool {
	for {
		cmd, ok := w.fromStream.TryPop()
		if !ok {
			return false
		}
		switch cmd.Kind {
		case WorkerCmdDone:
			return true
		case WorkerCmdDispose:
			disposeChain(cmd.DisposeHead)
		case WorkerCmdSeek:
			actual, err := w.decoder.Seek(cmd.SeekTarget)
			w.streamID = cmd.NewStreamID
			w.resetAccum()
			w.eofEmitted = false
			if w.resamp != nil {
				w.resamp.Close()
				if r, rerr := resampler.New(w.sourceRate, w.targetRate, w.channels, w.blockSize); rerr == nil {
					w.resamp = r
				} else {
					w.logger.Error("decode worker: failed to reset resampler after seek", "err", rerr)
				}
			}
			if err != nil {
				w.logger.Error("decode worker: seek error, terminating", "err", err)
				w.emitEOFBlock()
				return true
			}
			w.seekDelta = cmd.SeekTarget - actual
			if w.seekDelta < 0 {
				w.seekDelta = 0
			}
		}
	}
}

func (w *DecodeWorker) fillAccumulator(planar [][]float32, frames int) {
	offset := 0
	for offset < frames {
		room := w.blockSize - w.accumCount
		n := frames - offset
		if n > room {
			n = room
		}
		for ch := 0; ch < w.channels; ch++ {
			src := planar[minInt(ch, len(planar)-1)]
			copy(w.accum[ch][w.accumCount:w.accumCount+n], src[offset:offset+n])
		}
		w.accumCount += n
		offset += n

		if w.accumCount == w.blockSize {
			w.emitBlock(false)
			w.resetAccum()
		}
	}
}

func (w *DecodeWorker) emitBlock(isEOF bool) {
	var samples [][]float32
	numFrames := w.accumCount

	if w.resamp != nil {
		var out [][]float32
		var err error
		if isEOF {
			out, err = w.resamp.Flush(w.accum)
		} else {
			out, err = w.resamp.Process(w.accum)
		}
		if err != nil {
			w.logger.Error("decode worker: resampler error, terminating", "err", err)
			return
		}
		numFrames = len(out[0])
		if isEOF {
			want := int(math.Round(float64(w.accumCount) * w.ratio))
			if want < numFrames {
				numFrames = want
			}
		}
		samples = make([][]float32, w.channels)
		for ch := 0; ch < w.channels; ch++ {
			samples[ch] = append([]float32(nil), out[ch][:numFrames]...)
		}
	} else {
		samples = make([][]float32, w.channels)
		for ch := 0; ch < w.channels; ch++ {
			samples[ch] = append([]float32(nil), w.accum[ch][:numFrames]...)
		}
	}

	block := &DecodedBlock{
		Samples:       samples,
		NumFrames:     numFrames,
		ResampleRatio: w.ratio,
		StreamID:      w.streamID,
		IsEOF:         isEOF,
	}
	w.push(block)
}

func (w *DecodeWorker) emitEOFBlock() {
	// Pad the remainder of the accumulator with silence up to blockSize
	// so a resampler (if present) sees a full block; the trailing
	// silence beyond the real residual is then trimmed from NumFrames.
	for ch := 0; ch < w.channels; ch++ {
		for i := w.accumCount; i < w.blockSize; i++ {
			w.accum[ch][i] = 0
		}
	}
	w.emitBlock(true)
}

func (w *DecodeWorker) push(b *DecodedBlock) {
	for !w.toStream.TryPush(b) {
		time.Sleep(time.Millisecond)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
