//go:build windows

package wasapi

import (
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// The policy configuration client is undocumented but is what the Sound
// control panel uses to change default endpoints.
var (
	clsidPolicyConfigClient = ole.NewGUID("{870AF99C-171D-4F9E-AF0D-E63DF40C2BC9}")
	iidPolicyConfig         = ole.NewGUID("{F8679F50-850A-41CF-9C72-430F290290C8}")
)

type policyConfig struct {
	ole.IUnknown
}

type policyConfigVtbl struct {
	ole.IUnknownVtbl
	GetMixFormat          uintptr
	GetDeviceFormat       uintptr
	ResetDeviceFormat     uintptr
	SetDeviceFormat       uintptr
	GetProcessingPeriod   uintptr
	SetProcessingPeriod   uintptr
	GetShareMode          uintptr
	SetShareMode          uintptr
	GetPropertyValue      uintptr
	SetPropertyValue      uintptr
	SetDefaultEndpoint    uintptr
	SetEndpointVisibility uintptr
}

func (v *policyConfig) vtable() *policyConfigVtbl {
	return (*policyConfigVtbl)(unsafe.Pointer(v.RawVTable))
}

func newPolicyConfig() (*policyConfig, error) {
	unk, err := ole.CreateInstance(clsidPolicyConfigClient, iidPolicyConfig)
	if err != nil {
		return nil, err
	}
	return (*policyConfig)(unsafe.Pointer(unk)), nil
}

// setDefaultEndpoint makes the endpoint the default for role.
func (v *policyConfig) setDefaultEndpoint(id string, role uint32) error {
	wid, err := windows.UTF16PtrFromString(id)
	if err != nil {
		return err
	}
	hr, _, _ := syscall.SyscallN(
		v.vtable().SetDefaultEndpoint,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(wid)),
		uintptr(role))
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}
