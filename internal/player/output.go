package player

import (
	"fmt"
	"log/slog"

	"github.com/drgolem/go-portaudio/portaudio"
)

// preferredSampleRate is the device rate FileStreams resample to, chosen
// to match what most consumer DACs run at natively.
const preferredSampleRate = 44100

// maxFramesPerBuffer is the PortAudio callback buffer size. Output always
// opens its stream with this many frames per buffer; the device's own
// buffer limits are not queried.
const maxFramesPerBuffer = 1024

// Output owns the PortAudio stream and installs a Process's Fill method as
// its callback, so the device's C audio thread drives playback directly
// with no intermediate goroutine or channel in the hot path.
type Output struct {
	stream          *portaudio.PaStream
	proc            *Process
	channels        int
	sampleRate      int
	framesPerBuffer int
	scratch         []float32
	logger          *slog.Logger
}

// OpenOutput opens a PortAudio output stream on deviceIndex for channels
// channels, installing proc.Fill as the stream's callback. It reports the
// sample rate chosen (always preferredSampleRate; devices that can't run
// at it are not supported by this simple binding).
func OpenOutput(deviceIndex, channels int, proc *Process, logger *slog.Logger) (*Output, error) {
	if logger == nil {
		logger = slog.Default()
	}
	framesPerBuffer := maxFramesPerBuffer

	o := &Output{
		proc:            proc,
		channels:        channels,
		sampleRate:      preferredSampleRate,
		framesPerBuffer: framesPerBuffer,
		scratch:         make([]float32, framesPerBuffer*channels),
		logger:          logger,
	}

	// go-portaudio's PaStreamParameters offers SampleFmtInt16/Int24/Int32
	// only, no float format (see DESIGN.md); Int16 is picked here as the
	// device wire format, with Process.Fill still producing f32 at full
	// gain-applied precision and only this callback narrowing to int16.
	stream := &portaudio.PaStream{
		OutputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  deviceIndex,
			ChannelCount: channels,
			SampleFormat: portaudio.SampleFmtInt16,
		},
		SampleRate: float64(o.sampleRate),
	}

	if err := stream.OpenCallback(framesPerBuffer, o.callback); err != nil {
		return nil, fmt.Errorf("output: failed to open stream: %w", err)
	}
	if err := stream.StartStream(); err != nil {
		return nil, fmt.Errorf("output: failed to start stream: %w", err)
	}

	o.stream = stream
	return o, nil
}

// SampleRate reports the rate Output's stream was opened at; FileStreams
// should be opened with this as their target rate.
func (o *Output) SampleRate() int { return o.sampleRate }

// callback adapts PortAudio's byte-buffer callback convention to
// Process.Fill's f32 slice, reusing a scratch buffer sized for the
// stream's configured frames-per-buffer so no allocation happens per call.
// The f32→int16 narrowing happens here, at the device boundary, rather
// than inside Process, since the device format is the only thing forcing
// it (see DESIGN.md).
func (o *Output) callback(
	input, output []byte,
	frameCount uint,
	timeInfo *portaudio.StreamCallbackTimeInfo,
	statusFlags portaudio.StreamCallbackFlags,
) portaudio.StreamCallbackResult {
	n := int(frameCount)
	if n > o.framesPerBuffer {
		n = o.framesPerBuffer
	}

	o.proc.Fill(o.scratch[:n*o.channels], n)

	for i := 0; i < n*o.channels; i++ {
		s := o.scratch[i]
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		output[2*i] = byte(v)
		output[2*i+1] = byte(v >> 8)
	}

	return portaudio.Continue
}

// Close stops and closes the PortAudio stream.
func (o *Output) Close() error {
	if o.stream == nil {
		return nil
	}
	if err := o.stream.StopStream(); err != nil {
		o.logger.Warn("output: failed to stop stream", "err", err)
	}
	return o.stream.Close()
}
