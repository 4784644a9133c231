//go:build windows

package wasapi

import (
	"errors"

	ole "github.com/go-ole/go-ole"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// HRESULTs that mean "no such endpoint" rather than a platform failure.
const (
	hrElementNotFound = 0x80070490 // HRESULT_FROM_WIN32(ERROR_NOT_FOUND)
	hrDeviceInvalid   = 0x88890004 // AUDCLNT_E_DEVICE_INVALIDATED
)

var errClosed = errors.New("audio backend is closed")

// classify maps HRESULTs reporting a missing endpoint to types.ErrNotFound.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch uint32(oleErr.Code()) {
		case hrElementNotFound, hrDeviceInvalid:
			return types.NotFoundf("%s not found", what)
		}
	}
	return err
}
