// Package flac wraps github.com/drgolem/go-flac to satisfy the playback
// core's AudioDecoder interface: planar f32 output, frame-addressed seek.
package flac

import (
	"encoding/binary"
	"fmt"
	"io"

	goflac "github.com/drgolem/go-flac/flac"
)

const packetFrames = 4096

// Decoder decodes a FLAC file into planar f32 samples.
type Decoder struct {
	decoder  *goflac.FlacDecoder
	fileName string
	rate     int
	channels int
	bps      int

	pcm     []byte
	planar  [][]float32
	frame   int64       // frames decoded so far, used to answer Seek by re-decode
	pending [][]float32 // frames decoded past a Seek's target, held for the next DecodePacket
}

// NewDecoder creates an unopened FLAC decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens and initializes a FLAC file for decoding.
func (d *Decoder) Open(fileName string) error {
	decoder, err := goflac.NewFlacFrameDecoder(16)
	if err != nil {
		return fmt.Errorf("flac: create decoder: %w", err)
	}
	if err := decoder.Open(fileName); err != nil {
		decoder.Delete()
		return fmt.Errorf("flac: open %s: %w", fileName, err)
	}

	rate, channels, bps := decoder.GetFormat()
	d.decoder = decoder
	d.fileName = fileName
	d.rate = rate
	d.channels = channels
	d.bps = bps
	d.pcm = make([]byte, packetFrames*channels*(bps/8))
	d.planar = make([][]float32, channels)
	for i := range d.planar {
		d.planar[i] = make([]float32, packetFrames)
	}
	d.frame = 0
	d.pending = nil
	return nil
}

// Close closes the decoder and releases resources.
func (d *Decoder) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder.Delete()
		d.decoder = nil
	}
	return nil
}

// Format returns sample rate, channel count, and total frames as decoded
// from the STREAMINFO block's total-sample count.
func (d *Decoder) Format() (int, int, int64) {
	if d.decoder == nil {
		return d.rate, d.channels, 0
	}
	return d.rate, d.channels, d.decoder.TotalSamples()
}

// DecodePacket decodes up to packetFrames frames into planar f32, first
// draining any frames a prior Seek decoded past its target.
func (d *Decoder) DecodePacket() ([][]float32, error) {
	if len(d.pending) > 0 {
		p := d.pending
		d.pending = nil
		d.frame += int64(len(p[0]))
		return p, nil
	}
	planar, n, err := d.decodeRaw()
	if err != nil {
		return nil, err
	}
	d.frame += int64(n)
	return planar, nil
}

// decodeRaw decodes the next packetFrames-sized packet into d.planar,
// without advancing d.frame, so Seek can inspect the frame count before
// deciding whether to commit it or stash it as pending.
func (d *Decoder) decodeRaw() ([][]float32, int, error) {
	if d.decoder == nil {
		return nil, 0, fmt.Errorf("flac: decoder not initialized")
	}
	n, err := d.decoder.DecodeSamples(packetFrames, d.pcm)
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 0, io.EOF
	}

	bytesPerSample := d.bps / 8
	for ch := 0; ch < d.channels; ch++ {
		d.planar[ch] = d.planar[ch][:n]
	}
	for i := 0; i < n; i++ {
		for ch := 0; ch < d.channels; ch++ {
			off := (i*d.channels + ch) * bytesPerSample
			s := int16(binary.LittleEndian.Uint16(d.pcm[off : off+2]))
			d.planar[ch][i] = float32(s) / 32768.0
		}
	}
	return d.planar, n, nil
}

// Seek reopens (go-flac exposes no native seek table) and decodes forward
// to at most targetFrame. A packet that would overshoot targetFrame is not
// committed to d.frame; instead it is cloned into d.pending so the next
// DecodePacket call returns it, keeping Seek's reported position exact so
// the caller's forward-trim (seek_delta) lands on a real frame boundary.
func (d *Decoder) Seek(targetFrame int64) (int64, error) {
	// A packet still pending from an earlier Seek starts at d.frame; count
	// it as consumed so d.frame matches the decoder's real position.
	if len(d.pending) > 0 {
		d.frame += int64(len(d.pending[0]))
		d.pending = nil
	}
	if targetFrame < d.frame {
		fileName := d.fileName
		if err := d.Close(); err != nil {
			return 0, err
		}
		if err := d.Open(fileName); err != nil {
			return 0, err
		}
	}
	for d.frame < targetFrame {
		planar, n, err := d.decodeRaw()
		if err != nil {
			return d.frame, err
		}
		if d.frame+int64(n) > targetFrame {
			d.pending = clonePlanar(planar, n)
			return d.frame, nil
		}
		d.frame += int64(n)
	}
	return d.frame, nil
}

// clonePlanar copies frames from each channel of planar into independent
// storage, since planar aliases d.planar's reused backing arrays.
func clonePlanar(planar [][]float32, frames int) [][]float32 {
	out := make([][]float32, len(planar))
	for ch := range planar {
		out[ch] = append([]float32(nil), planar[ch][:frames]...)
	}
	return out
}
