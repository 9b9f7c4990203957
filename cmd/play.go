package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drgolem/directoryplayer/internal/player"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

var (
	playDeviceIdx int
	playShuffle   bool
	playRepeat    string
	playVolume    int
	playVerbose   bool
)

var playCmd = &cobra.Command{
	Use:   "play <directory-or-file>",
	Short: "Play a directory of audio files, or a single file",
	Long: `play opens a directory (or a single file) and plays its supported audio
files (.mp3, .flac, .fla, .wav, .ogg) in filename order through the
PlaybackManager's realtime pipeline.

Examples:
  directoryplayer play ./album
  directoryplayer play ./album --shuffle --repeat all
  directoryplayer play track.flac --device 0 --volume 70`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVarP(&playDeviceIdx, "device", "d", 1, "Audio output device index")
	playCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "Shuffle the play order")
	playCmd.Flags().StringVar(&playRepeat, "repeat", "none", "Repeat mode: none, all, one")
	playCmd.Flags().IntVar(&playVolume, "volume", 100, "Playback volume, 0-100")
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlay(cmd *cobra.Command, args []string) {
	logLevel := slog.LevelInfo
	if playVerbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	paths, err := player.ListDirectory(args[0])
	if err != nil {
		slog.Error("Failed to list audio files", "path", args[0], "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		slog.Error("No supported audio files found", "path", args[0])
		os.Exit(1)
	}

	repeatMode, err := parseRepeatMode(playRepeat)
	if err != nil {
		slog.Error("Invalid --repeat value", "value", playRepeat, "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		slog.Error("Hint: make sure PortAudio is installed on your system")
		os.Exit(1)
	}
	defer portaudio.Terminate()

	listener := newCLIListener()
	manager, proc := player.NewManager(44100, 2, listener, logger)
	defer manager.Close()

	out, err := player.OpenOutput(playDeviceIdx, 2, proc, logger)
	if err != nil {
		slog.Error("Failed to open audio output", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	shuffle := player.ShuffleNotEnabled
	if playShuffle {
		shuffle = player.ShuffleEnabled
	}
	if !manager.OpenQueue(paths, 0, shuffle) {
		slog.Error("Failed to build playback queue")
		os.Exit(1)
	}
	manager.SetRepeatMode(repeatMode)
	manager.SetVolume(playVolume)

	slog.Info("Starting playback", "file_count", len(paths), "shuffle", playShuffle, "repeat", playRepeat)
	if err := manager.Play(); err != nil {
		slog.Error("Failed to start playback", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	statusDone := make(chan struct{})
	go monitorManager(listener, statusDone)

	select {
	case <-listener.stopped:
		slog.Info("Playback completed")
	case sig := <-sigChan:
		slog.Info("Signal received, stopping playback", "signal", sig)
		manager.Stop()
	}

	close(statusDone)
	slog.Info("Exiting")
}

func parseRepeatMode(s string) (player.RepeatMode, error) {
	switch s {
	case "none", "":
		return player.RepeatNone, nil
	case "all":
		return player.RepeatAll, nil
	case "one":
		return player.RepeatOne, nil
	default:
		return player.RepeatNone, fmt.Errorf("must be one of: none, all, one")
	}
}

// cliListener renders manager notifications to stderr and signals when
// playback has reached StateStopped so the CLI can exit.
type cliListener struct {
	stopped chan struct{}
	once    bool

	lastTiming player.StreamTimingInternal
}

func newCLIListener() *cliListener { return &cliListener{stopped: make(chan struct{})} }

func (l *cliListener) OnFileChange(path string, md *player.Metadata) {
	title := path
	if md != nil && md.Title != "" {
		title = md.Title
	}
	slog.Info("Now playing", "title", title, "path", path)
}

func (l *cliListener) OnStateChange(state player.PlaybackState) {
	slog.Info("Playback state changed", "state", state.String())
	if state == player.StateStopped && !l.once {
		l.once = true
		close(l.stopped)
	}
}

func (l *cliListener) OnStreamTiming(timing player.StreamTimingInternal) {
	l.lastTiming = timing
}

func (l *cliListener) OnMetadataChange(md *player.Metadata) {
	if md == nil || md.Artist == "" {
		return
	}
	slog.Info("Track metadata", "artist", md.Artist, "title", md.Title)
}

// monitorManager logs the most recent timing snapshot every 2 seconds,
// matching the teacher's periodic status-line idiom.
func monitorManager(listener *cliListener, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			timing := listener.lastTiming
			if timing.TimeBase == 0 {
				continue
			}
			posSeconds := float64(timing.Pos) / float64(timing.TimeBase)
			totalSeconds := float64(timing.NFrames) / float64(timing.TimeBase)
			slog.Info("Playback position",
				"position", formatDuration(posSeconds),
				"total", formatDuration(totalSeconds))
		case <-done:
			return
		}
	}
}

func formatDuration(seconds float64) string {
	ms := int64(seconds * 1000)
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
