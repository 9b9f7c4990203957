package cmd

import (
	"fmt"
	"os"

	"github.com/drgolem/directoryplayer/internal/player"

	"github.com/spf13/cobra"
)

var queueShuffle bool

var queueCmd = &cobra.Command{
	Use:   "queue <directory>",
	Short: "Print the play order for a directory, without opening an audio device",
	Long: `queue builds the same Queue a "play" invocation would build for a
directory and prints it in play order, one file per line. Useful for
checking shuffle output or verifying which files directoryplayer
considers playable before committing to a device.`,
	Args: cobra.ExactArgs(1),
	Run:  runQueue,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.Flags().BoolVar(&queueShuffle, "shuffle", false, "Print the shuffled order instead of filename order")
}

func runQueue(cmd *cobra.Command, args []string) {
	paths, err := player.ListDirectory(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "no supported audio files found")
		os.Exit(1)
	}

	if !queueShuffle {
		for _, p := range paths {
			fmt.Println(p)
		}
		return
	}

	q := player.NewQueueShuffled(paths, 0)
	for i := 0; i < q.Len(); i++ {
		fmt.Println(paths[q.CurrentIndex()])
		if _, ok := q.GoNext(player.GoNextDefault); !ok {
			break
		}
	}
}
