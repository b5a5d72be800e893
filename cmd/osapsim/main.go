// Command osapsim runs an in-memory OSAP device for development and
// scripted testing: load a topology, drive its scheduler, and poke it
// with pings or a tree dump, all over simlink's channel-backed
// adapters rather than real hardware.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
