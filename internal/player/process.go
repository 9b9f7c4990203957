package player

import (
	"log/slog"

	"github.com/drgolem/directoryplayer/internal/ring"
)

// Process is the audio callback's state. Fill runs on the audio output
// thread (driven by the host's callback, e.g. PortAudio's C thread) and
// must never allocate or block: it drains pending ManagerCommands, copies
// samples from the current FileStream's read buffer into interleaved f32
// output at full gain-applied precision, and reports position/end-of-file
// back to the PlaybackManager over a ring rather than a blocking channel.
// Output is the only place this f32 signal is narrowed to int16, a
// forced step since go-portaudio exposes no float sample format.
type Process struct {
	channels int

	toProcess *ring.Ring[ManagerCommand]
	toManager *ring.Ring[ProcessEvent]

	current    *FileStream
	playbackID uint64
	state      PlaybackState
	gain       float32
	fatal      bool

	logger *slog.Logger
}

// NewProcess constructs a Process bound to the manager↔process rings.
func NewProcess(channels int, toProcess *ring.Ring[ManagerCommand], toManager *ring.Ring[ProcessEvent], logger *slog.Logger) *Process {
	return &Process{
		channels:  channels,
		toProcess: toProcess,
		toManager: toManager,
		state:     StateStopped,
		gain:      1.0,
		logger:    logger,
	}
}

func (p *Process) drainControl() {
	for {
		cmd, ok := p.toProcess.TryPop()
		if !ok {
			return
		}
		switch cmd.Kind {
		case ManagerCmdStartPlayback:
			p.current = cmd.FileStream
			p.playbackID = cmd.PlaybackID
			if cmd.StartPaused {
				p.state = StatePaused
			} else {
				p.state = StatePlaying
			}
		case ManagerCmdPause:
			p.state = StatePaused
		case ManagerCmdResume:
			if p.current != nil {
				p.state = StatePlaying
			}
		case ManagerCmdStop:
			p.current = nil
			p.state = StateStopped
		case ManagerCmdSeekTo:
			if p.current != nil {
				p.current.Seek(cmd.SeekPos)
			}
		case ManagerCmdSetGain:
			p.gain = cmd.Gain
		}
	}
}

// Fill writes exactly frameCount*channels interleaved f32 samples into
// output at full gain-applied precision, silence-padding whatever the
// current stream couldn't supply. A permanently fatal Process only ever
// emits silence.
func (p *Process) Fill(output []float32, frameCount int) {
	p.drainControl()

	needed := frameCount * p.channels
	if p.fatal || p.state != StatePlaying || p.current == nil {
		clearFloat32(output[:needed])
		return
	}

	written := 0
	for written < frameCount {
		data, ok := p.current.Read(frameCount - written)
		if !ok {
			break
		}

		nch := len(data.Planar)
		for i := 0; i < data.Frames; i++ {
			for ch := 0; ch < p.channels; ch++ {
				src := ch
				if nch == 1 {
					src = 0 // mono source, duplicate across output channels
				} else if src >= nch {
					src = nch - 1
				}
				output[(written+i)*p.channels+ch] = data.Planar[src][i] * p.gain
			}
		}
		written += data.Frames

		p.postEvent(ProcessEvent{Kind: ProcessEventPlaybackPos, PlaybackID: p.playbackID, Pos: p.current.Playhead()})

		if data.ReachedEndOfFile {
			p.postEvent(ProcessEvent{Kind: ProcessEventPlaybackEnded, PlaybackID: p.playbackID})
			p.current = nil
			p.state = StatePaused
			break
		}
	}

	if written < frameCount {
		clearFloat32(output[written*p.channels : frameCount*p.channels])
	}
}

// postEvent never blocks: a full process→manager ring means the manager is
// behind, and silently dropping a position tick is preferable to stalling
// the audio thread.
func (p *Process) postEvent(ev ProcessEvent) {
	p.toManager.TryPush(ev)
}

func clearFloat32(s []float32) {
	for i := range s {
		s[i] = 0
	}
}
