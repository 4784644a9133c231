// Package wasapi implements the audio endpoint backend on Windows Core Audio.
//
// All COM calls are made from a single OS thread owned by the Backend, so a
// Backend may be shared between goroutines. On other platforms the package
// is empty.
package wasapi
