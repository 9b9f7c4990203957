// Package wav wraps github.com/youpy/go-wav to satisfy the playback core's
// AudioDecoder interface: planar f32 output, frame-addressed seek.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gowav "github.com/youpy/go-wav"
)

const packetFrames = 4096

// Decoder decodes a PCM WAV file into planar f32 samples.
type Decoder struct {
	fileName    string
	file        *os.File
	reader      *gowav.Reader
	rate        int
	channels    int
	bps         int
	totalFrames int64 // 0 if the data chunk size could not be determined

	planar  [][]float32
	frame   int64
	pending [][]float32 // frames decoded past a Seek's target, held for the next DecodePacket
}

// NewDecoder creates an unopened WAV decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens a WAV file for decoding.
func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("wav: open %s: %w", fileName, err)
	}

	reader := gowav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		file.Close()
		return fmt.Errorf("wav: read format: %w", err)
	}
	if format.AudioFormat != gowav.AudioFormatPCM {
		file.Close()
		return fmt.Errorf("wav: unsupported format %d, only PCM supported", format.AudioFormat)
	}

	d.fileName = fileName
	d.file = file
	d.reader = reader
	d.rate = int(format.SampleRate)
	d.channels = int(format.NumChannels)
	d.bps = int(format.BitsPerSample)
	d.planar = make([][]float32, d.channels)
	d.frame = 0
	d.pending = nil

	if dataSize, err := dataChunkSize(fileName); err == nil && d.channels > 0 && d.bps > 0 {
		d.totalFrames = dataSize / int64(d.channels*(d.bps/8))
	} else {
		d.totalFrames = 0
	}
	return nil
}

// dataChunkSize walks a WAV file's RIFF chunk list independently of the
// streaming gowav.Reader to find the "data" subchunk's declared byte size,
// from which Format derives a total frame count.
func dataChunkSize(fileName string) (int64, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var riffHeader [12]byte
	if _, err := io.ReadFull(f, riffHeader[:]); err != nil {
		return 0, err
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return 0, fmt.Errorf("wav: not a RIFF/WAVE file")
	}

	var ckHeader [8]byte
	for {
		if _, err := io.ReadFull(f, ckHeader[:]); err != nil {
			return 0, err
		}
		ckID := string(ckHeader[0:4])
		ckSize := int64(binary.LittleEndian.Uint32(ckHeader[4:8]))
		if ckID == "data" {
			return ckSize, nil
		}
		if ckSize%2 == 1 {
			ckSize++ // chunks are word-aligned
		}
		if _, err := f.Seek(ckSize, io.SeekCurrent); err != nil {
			return 0, err
		}
	}
}

// Close closes the underlying file.
func (d *Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// Format returns sample rate, channel count, and total frames as derived
// from the data chunk's declared byte size (0 if that could not be read).
func (d *Decoder) Format() (int, int, int64) {
	return d.rate, d.channels, d.totalFrames
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
	planar, frames, err := d.decodeRaw()
	if err != nil {
		return nil, err
	}
	d.frame += int64(frames)
	return planar, nil
}

// decodeRaw decodes the next packetFrames-sized packet into d.planar,
// without advancing d.frame, so Seek can inspect the frame count before
// deciding whether to commit it or stash it as pending.
func (d *Decoder) decodeRaw() ([][]float32, int, error) {
	if d.reader == nil {
		return nil, 0, fmt.Errorf("wav: decoder not initialized")
	}

	samples, err := d.reader.ReadSamples(packetFrames)
	if err != nil && err != io.EOF {
		return nil, 0, err
	}
	if len(samples) == 0 {
		return nil, 0, io.EOF
	}

	for ch := 0; ch < d.channels; ch++ {
		if cap(d.planar[ch]) < len(samples) {
			d.planar[ch] = make([]float32, len(samples))
		}
		d.planar[ch] = d.planar[ch][:len(samples)]
	}

	maxVal := float32(int64(1) << uint(d.bps-1))
	for i, s := range samples {
		for ch := 0; ch < d.channels; ch++ {
			if ch >= len(s.Values) {
				d.planar[ch][i] = 0
				continue
			}
			d.planar[ch][i] = float32(s.Values[ch]) / maxVal
		}
	}
	return d.planar, len(samples), nil
}

// Seek reopens (go-wav's Reader offers no native seek) and decodes forward
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
		planar, frames, err := d.decodeRaw()
		if err != nil {
			return d.frame, err
		}
		if d.frame+int64(frames) > targetFrame {
			d.pending = clonePlanar(planar, frames)
			return d.frame, nil
		}
		d.frame += int64(frames)
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
