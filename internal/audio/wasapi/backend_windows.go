//go:build windows

package wasapi

import (
	"sync"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
	"golang.org/x/sys/windows"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// Backend talks to the Windows Core Audio endpoint APIs.
type Backend struct {
	com       *comThread
	closeOnce sync.Once
}

// Open starts the COM thread and creates the device enumerator and the
// policy configuration client.
func Open() (*Backend, error) {
	com, err := startCOMThread()
	if err != nil {
		return nil, err
	}
	return &Backend{com: com}, nil
}

// Close stops the COM thread. Calls made after Close fail.
func (b *Backend) Close() error {
	b.closeOnce.Do(b.com.stop)
	return nil
}

// Endpoints enumerates endpoints of flow whose state matches the mask.
func (b *Backend) Endpoints(flow types.Flow, state types.State) ([]types.Endpoint, error) {
	var out []types.Endpoint
	err := b.com.do(func() error {
		// The collection does not report the flow of an item, so render
		// endpoints are enumerated separately to tell the two apart.
		render := make(map[string]bool)
		if flow == types.FlowAll {
			if err := b.com.each(wca.ERender, uint32(state), func(ep types.Endpoint) {
				render[ep.ID] = true
			}); err != nil {
				return err
			}
		}
		return b.com.each(uint32(flow), uint32(state), func(ep types.Endpoint) {
			switch {
			case flow != types.FlowAll:
				ep.Flow = flow
			case render[ep.ID]:
				ep.Flow = types.FlowRender
			default:
				ep.Flow = types.FlowCapture
			}
			out = append(out, ep)
		})
	})
	return out, err
}

// Endpoint looks up one endpoint by ID.
func (b *Backend) Endpoint(id string) (types.Endpoint, error) {
	var ep types.Endpoint
	err := b.com.do(func() error {
		return b.com.withDevice(id, func(mmd *wca.IMMDevice) error {
			var err error
			if ep, err = describe(mmd); err != nil {
				return err
			}
			ep.Flow, err = dataFlow(mmd)
			return err
		})
	})
	return ep, err
}

// DefaultID returns the default endpoint ID for flow and role.
func (b *Backend) DefaultID(flow types.Flow, role types.Role) (string, error) {
	var id string
	err := b.com.do(func() error {
		var mmd *wca.IMMDevice
		if err := b.com.enum.GetDefaultAudioEndpoint(uint32(flow), uint32(role), &mmd); err != nil {
			return classify(err, "default "+flow.String()+" "+role.String()+" endpoint")
		}
		defer mmd.Release()
		return mmd.GetId(&id)
	})
	return id, err
}

// SetDefault makes the endpoint the default for role.
func (b *Backend) SetDefault(id string, role types.Role) error {
	return b.com.do(func() error {
		return classify(b.com.policy.setDefaultEndpoint(id, uint32(role)), "endpoint "+id)
	})
}

// Volume returns the master volume scalar.
func (b *Backend) Volume(id string) (float32, error) {
	var level float32
	err := b.com.do(func() error {
		return b.com.withVolume(id, func(aev *wca.IAudioEndpointVolume) error {
			return aev.GetMasterVolumeLevelScalar(&level)
		})
	})
	return level, err
}

// SetVolume sets the master volume scalar.
func (b *Backend) SetVolume(id string, level float32) error {
	return b.com.do(func() error {
		return b.com.withVolume(id, func(aev *wca.IAudioEndpointVolume) error {
			return aev.SetMasterVolumeLevelScalar(level, nil)
		})
	})
}

// Mute returns the mute state.
func (b *Backend) Mute(id string) (bool, error) {
	var muted bool
	err := b.com.do(func() error {
		return b.com.withVolume(id, func(aev *wca.IAudioEndpointVolume) error {
			return aev.GetMute(&muted)
		})
	})
	return muted, err
}

// SetMute sets the mute state.
func (b *Backend) SetMute(id string, mute bool) error {
	return b.com.do(func() error {
		return b.com.withVolume(id, func(aev *wca.IAudioEndpointVolume) error {
			return aev.SetMute(mute, nil)
		})
	})
}

// Peak returns the current peak value.
func (b *Backend) Peak(id string) (float32, error) {
	var peak float32
	err := b.com.do(func() error {
		return b.com.withDevice(id, func(mmd *wca.IMMDevice) error {
			var meter *audioMeterInformation
			if err := mmd.Activate(iidAudioMeterInformation, wca.CLSCTX_ALL, nil, &meter); err != nil {
				return classify(util.WrapError("activate peak meter", err), "endpoint "+id)
			}
			defer meter.Release()
			var err error
			peak, err = meter.peakValue()
			return err
		})
	})
	return peak, err
}

// each calls fn for every endpoint of the collection. Must run on the COM thread.
func (t *comThread) each(flow, state uint32, fn func(types.Endpoint)) error {
	var dc *wca.IMMDeviceCollection
	if err := t.enum.EnumAudioEndpoints(flow, state, &dc); err != nil {
		return util.WrapError("enumerate audio endpoints", err)
	}
	defer dc.Release()

	var count uint32
	if err := dc.GetCount(&count); err != nil {
		return util.WrapError("count audio endpoints", err)
	}
	for i := range count {
		var mmd *wca.IMMDevice
		if err := dc.Item(i, &mmd); err != nil {
			return util.WrapError("get audio endpoint", err)
		}
		ep, err := describe(mmd)
		mmd.Release()
		if err != nil {
			return err
		}
		fn(ep)
	}
	return nil
}

// withDevice opens the endpoint by ID. Must run on the COM thread.
func (t *comThread) withDevice(id string, fn func(*wca.IMMDevice) error) error {
	mmd, err := getDevice(t.enum, id)
	if err != nil {
		return classify(err, "endpoint "+id)
	}
	defer mmd.Release()
	return fn(mmd)
}

// getDevice calls IMMDeviceEnumerator::GetDevice, which go-wca leaves
// unimplemented.
func getDevice(enum *wca.IMMDeviceEnumerator, id string) (*wca.IMMDevice, error) {
	wid, err := windows.UTF16PtrFromString(id)
	if err != nil {
		return nil, types.InvalidArgumentf("invalid endpoint ID %q", id)
	}
	var mmd *wca.IMMDevice
	hr, _, _ := syscall.SyscallN(
		enum.VTable().GetDevice,
		uintptr(unsafe.Pointer(enum)),
		uintptr(unsafe.Pointer(wid)),
		uintptr(unsafe.Pointer(&mmd)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return mmd, nil
}

// dataFlow reports whether the device renders or captures.
func dataFlow(mmd *wca.IMMDevice) (types.Flow, error) {
	var mme *wca.IMMEndpoint
	if err := mmd.PutQueryInterface(wca.IID_IMMEndpoint, &mme); err != nil {
		return 0, util.WrapError("query endpoint interface", err)
	}
	defer mme.Release()
	var flow uint32
	if err := mme.GetDataFlow(&flow); err != nil {
		return 0, util.WrapError("get endpoint data flow", err)
	}
	return types.Flow(flow), nil
}

// withVolume activates the endpoint volume interface. Must run on the COM thread.
func (t *comThread) withVolume(id string, fn func(*wca.IAudioEndpointVolume) error) error {
	return t.withDevice(id, func(mmd *wca.IMMDevice) error {
		var aev *wca.IAudioEndpointVolume
		if err := mmd.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &aev); err != nil {
			return classify(util.WrapError("activate endpoint volume", err), "endpoint "+id)
		}
		defer aev.Release()
		return fn(aev)
	})
}

// describe reads the ID, friendly name and state of a device.
func describe(mmd *wca.IMMDevice) (types.Endpoint, error) {
	var ep types.Endpoint
	if err := mmd.GetId(&ep.ID); err != nil {
		return ep, util.WrapError("get device ID", err)
	}

	var state uint32
	if err := mmd.GetState(&state); err != nil {
		return ep, util.WrapError("get device state", err)
	}
	ep.State = types.State(state)

	var ps *wca.IPropertyStore
	if err := mmd.OpenPropertyStore(wca.STGM_READ, &ps); err != nil {
		return ep, util.WrapError("open property store", err)
	}
	defer ps.Release()

	var pv wca.PROPVARIANT
	if err := ps.GetValue(&wca.PKEY_Device_FriendlyName, &pv); err != nil {
		return ep, util.WrapError("get device friendly name", err)
	}
	ep.Name = pv.String()
	return ep, nil
}
