//go:build windows

package wasapi

import (
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// iidAudioMeterInformation identifies IAudioMeterInformation.
var iidAudioMeterInformation = ole.NewGUID("{C02216F6-8C67-4B5B-9D00-D008E73E0064}")

// audioMeterInformation is the peak meter of an endpoint.
type audioMeterInformation struct {
	ole.IUnknown
}

type audioMeterInformationVtbl struct {
	ole.IUnknownVtbl
	GetPeakValue            uintptr
	GetMeteringChannelCount uintptr
	GetChannelsPeakValues   uintptr
	QueryHardwareSupport    uintptr
}

func (v *audioMeterInformation) vtable() *audioMeterInformationVtbl {
	return (*audioMeterInformationVtbl)(unsafe.Pointer(v.RawVTable))
}

// peakValue returns the peak sample of all channels, in [0,1].
func (v *audioMeterInformation) peakValue() (float32, error) {
	var peak float32
	hr, _, _ := syscall.SyscallN(
		v.vtable().GetPeakValue,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&peak)))
	if hr != 0 {
		return 0, ole.NewError(hr)
	}
	return peak, nil
}
