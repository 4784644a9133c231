// Package main provides audioctl, a command line tool and monitor daemon for
// Windows audio endpoint devices.
//
// Usage:
//
//	audioctl list [--show-disabled]
//	audioctl get --playback-volume
//	audioctl set --index 2 --default-only
//	audioctl write --playback-meter
//	audioctl serve [--config path/to/config.json]
//
// If --config is not specified, audioctl looks for config.json in the same
// directory as the binary.
package main

import (
	"os"

	"github.com/oszuidwest/zwfm-audioctl/internal/commands"
)

func main() {
	os.Exit(commands.Execute())
}
