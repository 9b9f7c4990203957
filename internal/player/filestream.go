package player

import (
	"errors"
	"io"
	"log/slog"
	"math"

	"github.com/drgolem/directoryplayer/internal/ring"
	"github.com/drgolem/directoryplayer/pkg/decoders"
	"github.com/drgolem/directoryplayer/pkg/types"
)

// MessageBufferSize is the capacity of the two worker↔stream rings.
const MessageBufferSize = 16384

// ReadBufferSize is the per-channel capacity of a FileStream's read
// scratch buffer, returned (without per-call allocation) from Read.
const ReadBufferSize = 16384

// ReadData is a borrowed view into a FileStream's read_buffer, valid
// until the next Read or Seek call.
type ReadData struct {
	Planar           [][]float32
	Frames           int
	ReachedEndOfFile bool
}

// FileStream owns a DecodeWorker goroutine, its two rings, and a
// singly-linked list of buffered DecodedBlocks.
type FileStream struct {
	worker     *DecodeWorker
	toStream   *ring.Ring[*DecodedBlock] // worker -> stream
	toWorker   *ring.Ring[WorkerCommand] // stream -> worker
	head       *DecodedBlock

	playhead      int64
	streamID      uint64
	nFrames       int64
	hasNFrames    bool
	timeBase      int
	channels      int
	resampleRatio float64
	metadata      *Metadata
	readBuffer    [][]float32

	logger *slog.Logger
}

// Open probes path, spawns its DecodeWorker, and returns a ready
// FileStream. targetSampleRate is the device's output rate.
func Open(path string, targetSampleRate int, logger *slog.Logger) (*FileStream, error) {
	decoder, err := decoders.NewDecoder(path)
	if err != nil {
		return nil, err
	}

	sourceRate, channels, nFrames := decoder.Format()
	if sourceRate == 0 || channels == 0 {
		decoder.Close()
		return nil, &types.OpenError{Kind: types.OpenErrorNoTrack, Path: path}
	}

	var firstPacket [][]float32
	for attempts := 0; attempts < 8; attempts++ {
		firstPacket, err = decoder.DecodePacket()
		if err == nil || errors.Is(err, io.EOF) {
			break
		}
	}
	if firstPacket == nil {
		firstPacket = make([][]float32, channels)
	}

	blockSize := MinBlockSize
	if len(firstPacket) > 0 && len(firstPacket[0]) > blockSize {
		blockSize = len(firstPacket[0])
	}

	toStream := ring.New[*DecodedBlock](MessageBufferSize)
	toWorker := ring.New[WorkerCommand](MessageBufferSize)

	worker, err := NewDecodeWorker(decoder, sourceRate, targetSampleRate, channels, blockSize, 1, toStream, toWorker, logger)
	if err != nil {
		decoder.Close()
		return nil, &types.OpenError{Kind: types.OpenErrorCodec, Path: path, Err: err}
	}
	if len(firstPacket) > 0 && len(firstPacket[0]) > 0 {
		worker.fillAccumulator(firstPacket, len(firstPacket[0]))
	}

	readBuffer := make([][]float32, channels)
	for ch := range readBuffer {
		readBuffer[ch] = make([]float32, ReadBufferSize)
	}

	fs := &FileStream{
		worker:        worker,
		toStream:      toStream,
		toWorker:      toWorker,
		streamID:      1,
		channels:      channels,
		resampleRatio: float64(targetSampleRate) / float64(sourceRate),
		timeBase:      sourceRate,
		readBuffer:    readBuffer,
		logger:        logger,
	}
	if nFrames > 0 {
		fs.nFrames = nFrames
		fs.hasNFrames = true
	}
	fs.metadata = extractMetadata(path)

	go worker.Run()

	return fs, nil
}

// NFrames returns the total source-frame count, if known.
func (fs *FileStream) NFrames() (int64, bool) { return fs.nFrames, fs.hasNFrames }

// TimeBase returns the source sample rate, if known.
func (fs *FileStream) TimeBase() (int, bool) { return fs.timeBase, fs.timeBase > 0 }

// Playhead returns the current position in source frames.
func (fs *FileStream) Playhead() int64 { return fs.playhead }

// Metadata returns the immutable snapshot captured at open time.
func (fs *FileStream) Metadata() *Metadata { return fs.metadata }

// poll drains the worker→stream ring, discarding blocks from a stale
// stream_id and appending the rest to the tail of the buffered list.
func (fs *FileStream) poll() {
	for {
		b, ok := fs.toStream.TryPop()
		if !ok {
			return
		}
		if b.StreamID != fs.streamID {
			disposeChain(b)
			continue
		}
		fs.head = appendBlock(fs.head, b)
	}
}

// IsReady polls incoming blocks and reports whether any are buffered.
func (fs *FileStream) IsReady() bool {
	fs.poll()
	return fs.head != nil
}

// Read returns up to min(frames, ReadBufferSize) output frames across the
// buffered block list, a borrowed view into the stream's read buffer.
func (fs *FileStream) Read(frames int) (ReadData, bool) {
	fs.poll()

	need := frames
	if need > ReadBufferSize {
		need = ReadBufferSize
	}

	for ch := range fs.readBuffer {
		fs.readBuffer[ch] = fs.readBuffer[ch][:ReadBufferSize]
	}

	collected := 0
	reachedEOF := false

	for collected < need && fs.head != nil {
		b := fs.head
		avail := b.NumFrames - b.Playhead
		take := need - collected
		if take > avail {
			take = avail
		}
		for ch := 0; ch < fs.channels && ch < len(b.Samples); ch++ {
			copy(fs.readBuffer[ch][collected:collected+take], b.Samples[ch][b.Playhead:b.Playhead+take])
		}
		b.Playhead += take
		collected += take

		if b.Playhead >= b.NumFrames {
			consumed := b
			fs.head = b.Next
			consumed.Next = nil
			fs.toWorker.TryPush(WorkerCommand{Kind: WorkerCmdDispose, DisposeHead: consumed})
			if consumed.IsEOF {
				reachedEOF = true
				break
			}
		}
	}

	if collected == 0 && !reachedEOF {
		return ReadData{}, false
	}

	sourceFrames := int64(math.Round(float64(collected) / fs.resampleRatio))
	fs.playhead += sourceFrames

	for ch := range fs.readBuffer {
		fs.readBuffer[ch] = fs.readBuffer[ch][:collected]
	}

	return ReadData{Planar: fs.readBuffer, Frames: collected, ReachedEndOfFile: reachedEOF}, true
}

// Seek increments stream_id, tells the worker to reposition, sets
// playhead, and releases the current block list to the worker for
// disposal off the audio thread.
func (fs *FileStream) Seek(to int64) {
	fs.streamID++
	fs.toWorker.TryPush(WorkerCommand{Kind: WorkerCmdSeek, SeekTarget: to, NewStreamID: fs.streamID})
	fs.playhead = to
	if fs.head != nil {
		fs.toWorker.TryPush(WorkerCommand{Kind: WorkerCmdDispose, DisposeHead: fs.head})
		fs.head = nil
	}
}

// Close releases the current block list (if any) to the worker and asks
// it to exit, so no deallocation happens on the caller's (audio) thread.
func (fs *FileStream) Close() {
	if fs.head != nil {
		fs.toWorker.TryPush(WorkerCommand{Kind: WorkerCmdDispose, DisposeHead: fs.head})
		fs.head = nil
	}
	fs.toWorker.TryPush(WorkerCommand{Kind: WorkerCmdDone})
}
