//go:build windows

package audio

import "github.com/oszuidwest/zwfm-audioctl/internal/audio/wasapi"

// Open returns a Service backed by Windows Core Audio.
func Open() (*Service, error) {
	b, err := wasapi.Open()
	if err != nil {
		return nil, &PlatformError{Op: "open audio endpoint service", Err: err}
	}
	return NewService(b), nil
}
