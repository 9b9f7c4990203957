package player

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/drgolem/directoryplayer/internal/ring"
)

// EventListener receives the notifications a PlaybackManager emits as
// playback state changes. Callers that only care about some notifications
// can embed NoopListener in a struct and override selectively.
type EventListener interface {
	OnFileChange(path string, metadata *Metadata)
	OnStateChange(state PlaybackState)
	OnStreamTiming(timing StreamTimingInternal)
	OnMetadataChange(metadata *Metadata)
}

// NoopListener implements EventListener with no-ops, for callers (tests,
// headless CLI runs) that don't need notifications.
type NoopListener struct{}

func (NoopListener) OnFileChange(string, *Metadata)      {}
func (NoopListener) OnStateChange(PlaybackState)         {}
func (NoopListener) OnStreamTiming(StreamTimingInternal) {}
func (NoopListener) OnMetadataChange(*Metadata)          {}

// positionDebounce bounds how often stream-timing-change notifications are
// emitted from the 1ms process→manager bridge poll, so a UI listener isn't
// flooded at audio-callback rate.
const positionDebounce = 200 * time.Millisecond

// PlaybackManager owns the queue of tracks, the current FileStream, and the
// manager↔process command/event rings. All of its public methods are safe
// to call from any goroutine; only the bridge goroutine it starts touches
// the process→manager ring.
type PlaybackManager struct {
	mu sync.Mutex

	targetSampleRate int
	channels         int

	queue       *Queue[string]
	current     *FileStream
	playbackID  uint64
	state       PlaybackState
	shuffle     ShuffleMode
	repeat      RepeatMode
	volume      int
	timing      StreamTimingInternal
	timingKnown bool // true once the current track's NFrames is known

	toProcess   *ring.Ring[ManagerCommand]
	fromProcess *ring.Ring[ProcessEvent]

	listener EventListener
	logger   *slog.Logger

	lastPosEmit time.Time
	stopBridge  chan struct{}
}

// NewManager constructs a PlaybackManager and its paired Process (the
// object Output installs as the device's audio callback), and starts the
// manager's background bridge goroutine.
func NewManager(targetSampleRate, channels int, listener EventListener, logger *slog.Logger) (*PlaybackManager, *Process) {
	if listener == nil {
		listener = NoopListener{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	toProcess := ring.New[ManagerCommand](64)
	fromProcess := ring.New[ProcessEvent](4096)

	proc := NewProcess(channels, toProcess, fromProcess, logger)
	m := &PlaybackManager{
		targetSampleRate: targetSampleRate,
		channels:         channels,
		volume:           100,
		state:            StateStopped,
		toProcess:        toProcess,
		fromProcess:      fromProcess,
		listener:         listener,
		logger:           logger,
		stopBridge:       make(chan struct{}),
	}

	go m.bridge()

	return m, proc
}

// gainForVolume maps a 0-100 volume to a perceptual linear gain via a 2.7
// power curve, matching the original implementation's loudness curve.
func gainForVolume(volume int) float32 {
	v := float64(volume) / 100.0
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	g := math.Pow(v, 2.7)
	if g > 1 {
		g = 1
	}
	return float32(g)
}

// bridge polls the process→manager ring every millisecond, debouncing
// position notifications and handling end-of-file transitions. It runs for
// the manager's lifetime until Close.
func (m *PlaybackManager) bridge() {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopBridge:
			return
		case <-ticker.C:
			m.drainEvents()
		}
	}
}

func (m *PlaybackManager) drainEvents() {
	for {
		ev, ok := m.fromProcess.TryPop()
		if !ok {
			return
		}
		m.mu.Lock()
		if ev.PlaybackID != m.playbackID {
			m.mu.Unlock()
			continue
		}
		switch ev.Kind {
		case ProcessEventPlaybackPos:
			m.timing.Pos = ev.Pos
			if m.timingKnown && time.Since(m.lastPosEmit) >= positionDebounce {
				m.lastPosEmit = time.Now()
				timing := m.timing
				m.mu.Unlock()
				m.listener.OnStreamTiming(timing)
				continue
			}
		case ProcessEventPlaybackEnded:
			m.mu.Unlock()
			m.handlePlaybackEnded()
			continue
		}
		m.mu.Unlock()
	}
}

func (m *PlaybackManager) handlePlaybackEnded() {
	m.mu.Lock()
	repeat := m.repeat
	m.mu.Unlock()

	switch repeat {
	case RepeatOne:
		m.replayCurrent()
	default:
		mode := GoNextDefault
		if repeat == RepeatAll {
			mode = GoNextRepeatAll
		}
		if !m.advance(mode) {
			m.mu.Lock()
			m.state = StateStopped
			m.mu.Unlock()
			m.listener.OnStateChange(StateStopped)
		}
	}
}

// OpenQueue replaces the playback queue with paths, starting at startIndex.
// It does not begin playback; call Play to do that.
func (m *PlaybackManager) OpenQueue(paths []string, startIndex int, shuffle ShuffleMode) bool {
	var q *Queue[string]
	if shuffle == ShuffleEnabled {
		q = NewQueueShuffled(paths, startIndex)
	} else {
		q = NewQueue(paths, startIndex)
	}
	if q == nil {
		return false
	}
	m.mu.Lock()
	m.queue = q
	m.shuffle = shuffle
	m.mu.Unlock()
	return true
}

// Play opens the queue's current track and starts playback from frame 0,
// skipping forward past any track that fails to open (missing, unsupported,
// or corrupt file) until one opens or the queue is exhausted.
func (m *PlaybackManager) Play() error {
	m.mu.Lock()
	q := m.queue
	m.mu.Unlock()
	if q == nil {
		return errNoQueue
	}
	err := m.openAndStart(q.Current(), false)
	if err == nil {
		return nil
	}
	m.logger.Error("playback manager: failed to open track, skipping", "path", q.Current(), "err", err)

	if !m.advance(GoNextDefault) {
		return errNoPlayableTrack
	}
	return nil
}

func (m *PlaybackManager) replayCurrent() {
	m.mu.Lock()
	q := m.queue
	m.mu.Unlock()
	if q == nil {
		return
	}
	if err := m.openAndStart(q.Current(), false); err != nil {
		m.logger.Error("playback manager: failed to reopen track for repeat-one", "path", q.Current(), "err", err)
		m.mu.Lock()
		m.state = StateStopped
		m.mu.Unlock()
		m.listener.OnStateChange(StateStopped)
	}
}

// advance moves the queue forward per mode and starts the next track,
// skipping past any track that fails to open (missing, unsupported, or
// corrupt file) rather than halting the queue on it. It keeps advancing
// until a track opens or it has tried every element once (bounded so a
// queue that is entirely unplayable under GoNextRepeatAll doesn't spin
// forever). Returns false if no playable track was found.
func (m *PlaybackManager) advance(mode GoNextMode) bool {
	m.mu.Lock()
	q := m.queue
	m.mu.Unlock()
	if q == nil {
		return false
	}
	for attempts := 0; attempts < q.Len(); attempts++ {
		path, ok := q.GoNext(mode)
		if !ok {
			return false
		}
		if err := m.openAndStart(path, false); err != nil {
			m.logger.Error("playback manager: failed to open track, skipping", "path", path, "err", err)
			continue
		}
		return true
	}
	m.logger.Error("playback manager: no playable track found in queue")
	return false
}

// SkipForward advances to the next track in the queue, wrapping under
// RepeatAll, stopping under RepeatNone/RepeatOne at the end.
func (m *PlaybackManager) SkipForward() {
	m.mu.Lock()
	repeat := m.repeat
	m.mu.Unlock()
	mode := GoNextDefault
	if repeat == RepeatAll {
		mode = GoNextRepeatAll
	}
	if !m.advance(mode) {
		m.mu.Lock()
		m.state = StateStopped
		m.mu.Unlock()
		m.listener.OnStateChange(StateStopped)
	}
}

// skipBackThresholdSeconds is how far into a track playback must be before
// SkipBack restarts it instead of moving to the previous track.
const skipBackThresholdSeconds = 3

// SkipBack moves to the previous track if playback is less than
// skipBackThresholdSeconds into the current one and a previous track
// exists. Otherwise (including when the track's time base is unknown) it
// seeks to the start of the current track.
func (m *PlaybackManager) SkipBack() {
	m.mu.Lock()
	q := m.queue
	pos := m.timing.Pos
	timeBase := m.timing.TimeBase
	hasPrev := q != nil && q.HasPrevious()
	m.mu.Unlock()

	if q == nil {
		return
	}
	early := timeBase > 0 && pos < int64(skipBackThresholdSeconds*timeBase)
	if !early || !hasPrev {
		m.SeekTo(0)
		return
	}
	m.mu.Lock()
	path := q.GoPreviousClamped()
	m.mu.Unlock()
	if err := m.openAndStart(path, false); err != nil {
		m.logger.Error("playback manager: failed to open previous track", "path", path, "err", err)
	}
}

func (m *PlaybackManager) openAndStart(path string, startPaused bool) error {
	fs, err := Open(path, m.targetSampleRate, m.logger)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.current != nil {
		m.current.Close()
	}
	m.current = fs
	m.playbackID++
	id := m.playbackID
	nFrames, hasNFrames := fs.NFrames()
	timeBase, _ := fs.TimeBase()
	m.timing = StreamTimingInternal{NFrames: nFrames, TimeBase: timeBase}
	m.timingKnown = hasNFrames
	if startPaused {
		m.state = StatePaused
	} else {
		m.state = StatePlaying
	}
	gain := gainForVolume(m.volume)
	metadata := fs.Metadata()
	m.mu.Unlock()

	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdSetGain, Gain: gain})
	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdStartPlayback, PlaybackID: id, FileStream: fs, StartPaused: startPaused})

	m.listener.OnFileChange(path, metadata)
	m.listener.OnMetadataChange(metadata)
	m.listener.OnStateChange(m.currentState())
	if hasNFrames {
		m.listener.OnStreamTiming(m.currentTiming())
	}

	return nil
}

func (m *PlaybackManager) currentState() PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *PlaybackManager) currentTiming() StreamTimingInternal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timing
}

// Pause pauses the currently playing track, if any.
func (m *PlaybackManager) Pause() {
	m.mu.Lock()
	if m.state != StatePlaying {
		m.mu.Unlock()
		return
	}
	m.state = StatePaused
	m.mu.Unlock()
	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdPause})
	m.listener.OnStateChange(StatePaused)
}

// Resume resumes a paused track.
func (m *PlaybackManager) Resume() {
	m.mu.Lock()
	if m.state != StatePaused || m.current == nil {
		m.mu.Unlock()
		return
	}
	m.state = StatePlaying
	m.mu.Unlock()
	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdResume})
	m.listener.OnStateChange(StatePlaying)
}

// Stop halts playback and releases the current FileStream.
func (m *PlaybackManager) Stop() {
	m.mu.Lock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
	m.state = StateStopped
	m.mu.Unlock()
	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdStop})
	m.listener.OnStateChange(StateStopped)
}

// SeekTo seeks the current track to pos source frames.
func (m *PlaybackManager) SeekTo(pos int64) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	m.timing.Pos = pos
	m.mu.Unlock()
	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdSeekTo, SeekPos: pos})
}

// SetVolume sets the 0-100 volume, translating it to a gain and pushing it
// to the Process immediately.
func (m *PlaybackManager) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdSetGain, Gain: gainForVolume(volume)})
}

// SetShuffleMode toggles shuffle, preserving whatever is currently playing.
func (m *PlaybackManager) SetShuffleMode(mode ShuffleMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queue == nil || m.shuffle == mode {
		return
	}
	if mode == ShuffleEnabled {
		m.queue = m.queue.ToShuffled()
	} else {
		m.queue = m.queue.ToUnshuffled()
	}
	m.shuffle = mode
}

// SetRepeatMode sets the queue's end-of-track/end-of-queue behavior.
func (m *PlaybackManager) SetRepeatMode(mode RepeatMode) {
	m.mu.Lock()
	m.repeat = mode
	m.mu.Unlock()
}

// Close stops the bridge goroutine and releases the current stream.
func (m *PlaybackManager) Close() {
	m.Stop()
	close(m.stopBridge)
	m.toProcess.TryPush(ManagerCommand{Kind: ManagerCmdStop})
}

type managerError string

func (e managerError) Error() string { return string(e) }

const errNoQueue = managerError("playback manager: no queue opened")
const errNoPlayableTrack = managerError("playback manager: no playable track in queue")
