// SPDX-License-Identifier: EPL-2.0

// Command audsrv renders or plays a small demo graph on the audio server and
// converts audio files to mono 16-bit WAV.
//
// Usage:
//
//	audsrv render [-config f] [-out out.wav] [-duration 2s] [graph flags]
//	audsrv play [-config f] [-duration 0] [-backend oto|clock] [graph flags]
//	audsrv convert [-rate 8000] <input> <output.wav>
//	audsrv version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(ctx, os.Args[2:])
	case "play":
		err = runPlay(ctx, os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "version":
		fmt.Printf("audsrv %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "audsrv %s: %v\n", os.Args[1], err)
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: audsrv <command> [flags]

commands:
  render    render the demo graph to a WAV file
  play      play the demo graph on the sound card
  convert   convert an audio file to mono 16-bit WAV
  version   print the version
`)
}
