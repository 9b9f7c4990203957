// Package ogg wraps github.com/jfreymuth/oggvorbis to satisfy the
// playback core's AudioDecoder interface. The teacher repo has no OGG
// decoder; this one is built fresh, grounded on oggvorbis usage found in
// the example pack's olivier-w-climp decoder reference.
package ogg

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

const packetFrames = 4096

// Decoder decodes an OGG/Vorbis file into planar f32 samples.
type Decoder struct {
	file     *os.File
	reader   *oggvorbis.Reader
	channels int

	interleaved []float32
	planar      [][]float32
}

// NewDecoder creates an unopened OGG decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens and initializes an OGG/Vorbis file for decoding.
func (d *Decoder) Open(fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("ogg: open %s: %w", fileName, err)
	}
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("ogg: decode %s: %w", fileName, err)
	}
	d.file = f
	d.reader = reader
	d.channels = reader.Channels()
	d.interleaved = make([]float32, packetFrames*d.channels)
	d.planar = make([][]float32, d.channels)
	for ch := range d.planar {
		d.planar[ch] = make([]float32, packetFrames)
	}
	return nil
}

// Close closes the underlying file.
func (d *Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		d.reader = nil
		return err
	}
	return nil
}

// Format returns sample rate, channel count, and total frames.
func (d *Decoder) Format() (int, int, int64) {
	if d.reader == nil {
		return 0, 0, 0
	}
	return d.reader.SampleRate(), d.channels, d.reader.Length()
}

// DecodePacket decodes up to packetFrames frames into planar f32.
func (d *Decoder) DecodePacket() ([][]float32, error) {
	if d.reader == nil {
		return nil, fmt.Errorf("ogg: decoder not initialized")
	}
	n, err := d.reader.Read(d.interleaved)
	if n == 0 {
		if err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	frames := n / d.channels
	for ch := 0; ch < d.channels; ch++ {
		d.planar[ch] = d.planar[ch][:frames]
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < d.channels; ch++ {
			d.planar[ch][i] = d.interleaved[i*d.channels+ch]
		}
	}
	if err == io.EOF {
		return d.planar, nil
	}
	return d.planar, nil
}

// Seek repositions to targetFrame using oggvorbis's native sample-accurate
// SetPosition.
func (d *Decoder) Seek(targetFrame int64) (int64, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("ogg: decoder not initialized")
	}
	if err := d.reader.SetPosition(targetFrame); err != nil {
		return 0, err
	}
	return targetFrame, nil
}
