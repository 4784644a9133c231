package util

import (
	"os"
	"syscall"
)

// ShutdownSignals returns the signals that stop the meter loop and the daemon.
// On Windows, SIGTERM is delivered when the console window is closed or the
// user logs off.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
