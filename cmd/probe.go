package cmd

import (
	"fmt"
	"os"

	"github.com/drgolem/directoryplayer/internal/player"
	"github.com/drgolem/directoryplayer/pkg/decoders"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file> [file...]",
	Short: "Print format and metadata information for audio files",
	Long: `probe opens each file's decoder just long enough to report its
container format (sample rate, channels, total frames if known) and its
tag metadata (title, artist, embedded cover presence), without starting
a DecodeWorker or opening an audio device.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) {
	exitCode := 0
	for _, path := range args {
		if err := probeOne(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
			continue
		}
	}
	os.Exit(exitCode)
}

func probeOne(path string) error {
	decoder, err := decoders.NewDecoder(path)
	if err != nil {
		return err
	}
	defer decoder.Close()

	rate, channels, nFrames := decoder.Format()
	md := player.ExtractMetadata(path)

	fmt.Printf("%s\n", path)
	fmt.Printf("  sample_rate: %d Hz\n", rate)
	fmt.Printf("  channels:    %d\n", channels)
	if nFrames > 0 {
		fmt.Printf("  duration:    %.2fs (%d frames)\n", float64(nFrames)/float64(rate), nFrames)
	} else {
		fmt.Printf("  duration:    unknown\n")
	}
	fmt.Printf("  title:       %s\n", md.Title)
	if md.Artist != "" {
		fmt.Printf("  artist:      %s\n", md.Artist)
	}
	if md.HasCover {
		fmt.Printf("  cover:       %s, %d bytes\n", md.CoverMediaType, len(md.CoverData))
	}
	fmt.Printf("  color:       %s\n", md.FallbackColor)

	return nil
}
