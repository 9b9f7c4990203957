package player

// WorkerCommandKind identifies the kind of message sent from FileStream to
// its DecodeWorker over the stream→worker ring.
type WorkerCommandKind int

const (
	// WorkerCmdDispose returns an exhausted block chain to the worker for
	// destruction off the audio thread.
	WorkerCmdDispose WorkerCommandKind = iota
	// WorkerCmdSeek asks the worker to reposition its decoder and adopt a
	// new stream epoch.
	WorkerCmdSeek
	// WorkerCmdDone asks the worker to exit. It carries no payload; the
	// stream's read buffer is not handed to the worker.
	WorkerCmdDone
)

// WorkerCommand is one message on the stream→worker ring.
type WorkerCommand struct {
	Kind        WorkerCommandKind
	DisposeHead *DecodedBlock // for WorkerCmdDispose
	SeekTarget  int64         // for WorkerCmdSeek, in source frames
	NewStreamID uint64        // for WorkerCmdSeek
}

// ManagerCommandKind identifies the kind of message sent from
// PlaybackManager to Process over the manager→process ring.
type ManagerCommandKind int

const (
	ManagerCmdStartPlayback ManagerCommandKind = iota
	ManagerCmdPause
	ManagerCmdResume
	ManagerCmdStop
	ManagerCmdSeekTo
	ManagerCmdSetGain
)

// ManagerCommand is one message on the manager→process ring.
type ManagerCommand struct {
	Kind ManagerCommandKind

	PlaybackID  uint64      // for StartPlayback
	FileStream  *FileStream // for StartPlayback
	StartPaused bool        // for StartPlayback

	SeekPos int64   // for SeekTo, source frames
	Gain    float32 // for SetGain
}

// ProcessEventKind identifies the kind of message sent from Process back
// to PlaybackManager over the process→manager ring.
type ProcessEventKind int

const (
	ProcessEventPlaybackPos ProcessEventKind = iota
	ProcessEventPlaybackEnded
)

// ProcessEvent is one message on the process→manager ring.
type ProcessEvent struct {
	Kind       ProcessEventKind
	PlaybackID uint64
	Pos        int64 // source frames, for ProcessEventPlaybackPos
}

// PlaybackState is the coarse playback state exposed to the host.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// ShuffleMode is the queue's shuffle toggle.
type ShuffleMode int

const (
	ShuffleNotEnabled ShuffleMode = iota
	ShuffleEnabled
)

// RepeatMode is the queue's repeat policy.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatOne
)

// Metadata is an immutable snapshot of a track's tags, captured at
// FileStream open time.
type Metadata struct {
	Title          string
	Artist         string
	HasCover       bool
	CoverMediaType string
	CoverData      []byte
	FallbackColor  string // "rgba(r,g,b,a)", deterministic from parent dir
}

// StreamTimingInternal mirrors a FileStream's timing facts as captured by
// the manager once an open succeeds.
type StreamTimingInternal struct {
	NFrames  int64
	TimeBase int // sample rate the NFrames/Pos are expressed in
	Pos      int64
}
