// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ik5/audsrv"
	"github.com/ik5/audsrv/formats"
	"github.com/ik5/audsrv/formats/wav"
)

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	rate := fs.Int("rate", 8000, "output sample rate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: audsrv convert [-rate 8000] <input> <output.wav>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	src, err := formats.NewRegistry().Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	pcm, err := audsrv.ResampleToMono16(src, *rate, 4096)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := wav.WriteWAV16(f, *rate, 1, pcm); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d samples at %d Hz\n", out, len(pcm), *rate)

	return f.Close()
}
