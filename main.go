package main

import "github.com/drgolem/directoryplayer/cmd"

func main() {
	cmd.Execute()
}
