package types

// AudioDecoder is the common interface for all format decoders (MP3, FLAC,
// WAV, OGG) used by the playback core. Unlike the byte-PCM oriented
// decoders this module's teacher lineage used, decoders here hand back
// planar f32 samples (one []float32 per channel) so DecodeWorker never has
// to re-parse a sample format, and support Seek so FileStream's seek
// operation can re-synchronize the underlying container.
type AudioDecoder interface {
	// Open opens an audio file for decoding.
	Open(fileName string) error

	// Close closes the decoder and releases resources.
	Close() error

	// Format returns sample rate (Hz), channel count, and total frames if
	// known from container metadata (0 if unknown).
	Format() (sampleRate, channels int, totalFrames int64)

	// DecodePacket decodes the next packet's worth of samples into planar
	// per-channel f32. The returned slices alias decoder-internal storage
	// valid until the next call. Returns io.EOF when the stream is
	// exhausted (ErrUnexpectedEOF is wrapped in io.EOF per convention: the
	// caller treats any io.EOF-wrapping error as end of stream).
	DecodePacket() (planar [][]float32, err error)

	// Seek repositions the decoder so the next DecodePacket call returns
	// samples starting at or before targetFrame; it reports the actual
	// frame position reached (container seeks are rarely exact).
	Seek(targetFrame int64) (actualFrame int64, err error)
}

// OpenErrorKind enumerates the distinct ways opening a file can fail, per
// the error taxonomy in the playback core's error handling design.
type OpenErrorKind int

const (
	// OpenErrorIO indicates the file was missing or unreadable.
	OpenErrorIO OpenErrorKind = iota
	// OpenErrorCodec indicates container probing or decoder
	// initialization failed.
	OpenErrorCodec
	// OpenErrorNoTrack indicates the container has no usable default
	// track.
	OpenErrorNoTrack
)

// OpenError wraps a file-open failure with its kind, mirroring the
// original implementation's FileStreamOpenError enum.
type OpenError struct {
	Kind OpenErrorKind
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	switch e.Kind {
	case OpenErrorNoTrack:
		return "no playable track in " + e.Path
	case OpenErrorCodec:
		return "codec error opening " + e.Path + ": " + e.errString()
	default:
		return "io error opening " + e.Path + ": " + e.errString()
	}
}

func (e *OpenError) errString() string {
	if e.Err == nil {
		return "unknown"
	}
	return e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }
