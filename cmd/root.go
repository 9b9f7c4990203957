package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "directoryplayer",
	Short: "Directory-queue audio player with lock-free realtime playback",
	Long: `directoryplayer plays a directory of audio files through a three-tier
realtime pipeline: a per-file decode worker, a frame-accurate FileStream
buffer, and an allocation-free audio callback, coordinated by a
PlaybackManager over lock-free SPSC rings.

Commands:
  - play: open a directory (or file) and play it through an output
    device (--device), with shuffle/repeat/volume options
  - queue: print the play order directoryplayer would build for a
    directory, without opening an audio device
  - probe: print format/metadata information for one or more audio files
  - transform: resample an audio file to a WAV file at a new sample rate`,
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
