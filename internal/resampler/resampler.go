// Package resampler provides a persistent, block-buffered facade over
// github.com/zaf/resample (libsoxr). It stands in for the fixed-in-size
// FFT resampler the playback core's design assumes (rubato's FftFixedIn in
// the original implementation): no such library exists in Go, so this
// wrapper instead drives a streaming soxr instance one fixed-size input
// block at a time and hands back whatever output frames that block
// produced, preserving the "one call in, one block out" contract the
// decode worker relies on.
package resampler

import (
	"bytes"
	"encoding/binary"
	"fmt"

	soxr "github.com/zaf/resample"
)

// Resampler converts planar f32 input at inRate to planar f32 output at
// outRate, for a fixed channel count, reusing its internal buffers across
// calls to avoid per-block allocation in steady state.
type Resampler struct {
	channels int
	ratio    float64

	sink  bytes.Buffer
	soxr  *soxr.Resampler
	inBuf []byte

	outPlanar [][]float32
}

// New creates a resampler from inRate to outRate for the given channel
// count. blockSize sizes the initial output buffers (they grow on demand).
func New(inRate, outRate, channels, blockSize int) (*Resampler, error) {
	r := &Resampler{
		channels: channels,
		ratio:    float64(outRate) / float64(inRate),
	}
	sx, err := soxr.New(&r.sink, float64(inRate), float64(outRate), channels, soxr.I16, soxr.HighQ)
	if err != nil {
		return nil, fmt.Errorf("resampler: create soxr instance: %w", err)
	}
	r.soxr = sx
	r.outPlanar = make([][]float32, channels)
	for ch := range r.outPlanar {
		r.outPlanar[ch] = make([]float32, 0, blockSize*2)
	}
	return r, nil
}

// Ratio returns target_sr / source_sr.
func (r *Resampler) Ratio() float64 { return r.ratio }

// Close releases the underlying soxr instance.
func (r *Resampler) Close() error {
	if r.soxr != nil {
		return r.soxr.Close()
	}
	return nil
}

// Process resamples exactly len(in[0]) input frames (every channel slice
// must have equal length) and returns the output frames soxr produced for
// that input, aliasing buffers owned by the Resampler (valid until the
// next Process/Flush call).
func (r *Resampler) Process(in [][]float32) ([][]float32, error) {
	frames := 0
	if len(in) > 0 {
		frames = len(in[0])
	}
	return r.feed(in, frames, false)
}

// Flush resamples the given input and then drains any samples still
// buffered inside soxr, used when a DecodeWorker reaches end of stream
// mid-block. It does not pad the input; DecodeWorker pads its last block
// with silence before calling Flush.
func (r *Resampler) Flush(in [][]float32) ([][]float32, error) {
	frames := 0
	if len(in) > 0 {
		frames = len(in[0])
	}
	return r.feed(in, frames, true)
}

func (r *Resampler) feed(in [][]float32, frames int, isFinal bool) ([][]float32, error) {
	need := frames * r.channels * 2
	if cap(r.inBuf) < need {
		r.inBuf = make([]byte, need)
	}
	r.inBuf = r.inBuf[:need]

	for i := 0; i < frames; i++ {
		for ch := 0; ch < r.channels; ch++ {
			var s float32
			if ch < len(in) && i < len(in[ch]) {
				s = in[ch][i]
			}
			v := int16(clampFloat(s) * 32767)
			off := (i*r.channels + ch) * 2
			binary.LittleEndian.PutUint16(r.inBuf[off:], uint16(v))
		}
	}

	r.sink.Reset()
	if frames > 0 {
		if _, err := r.soxr.Write(r.inBuf); err != nil {
			return nil, fmt.Errorf("resampler: write: %w", err)
		}
	}
	if isFinal {
		if err := r.soxr.Close(); err != nil {
			return nil, fmt.Errorf("resampler: flush close: %w", err)
		}
	}

	out := r.sink.Bytes()
	outFrames := len(out) / (2 * r.channels)
	for ch := 0; ch < r.channels; ch++ {
		if cap(r.outPlanar[ch]) < outFrames {
			r.outPlanar[ch] = make([]float32, outFrames)
		}
		r.outPlanar[ch] = r.outPlanar[ch][:outFrames]
	}
	for i := 0; i < outFrames; i++ {
		for ch := 0; ch < r.channels; ch++ {
			off := (i*r.channels + ch) * 2
			v := int16(binary.LittleEndian.Uint16(out[off:]))
			r.outPlanar[ch][i] = float32(v) / 32768.0
		}
	}
	return r.outPlanar, nil
}

func clampFloat(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
