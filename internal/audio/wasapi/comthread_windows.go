//go:build windows

package wasapi

import (
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"

	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// comThread runs closures on one OS thread with COM initialized.
type comThread struct {
	calls   chan func()
	done    chan struct{}
	stopped chan struct{}

	// Only touched from the COM thread.
	enum   *wca.IMMDeviceEnumerator
	policy *policyConfig
}

func startCOMThread() (*comThread, error) {
	t := &comThread{
		calls:   make(chan func()),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	ready := make(chan error, 1)
	go t.run(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return t, nil
}

func (t *comThread) run(ready chan<- error) {
	defer close(t.stopped)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		ready <- util.WrapError("initialize COM", err)
		return
	}
	defer ole.CoUninitialize()

	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &t.enum); err != nil {
		ready <- util.WrapError("create device enumerator", err)
		return
	}
	defer t.enum.Release()

	policy, err := newPolicyConfig()
	if err != nil {
		ready <- util.WrapError("create policy config client", err)
		return
	}
	t.policy = policy
	defer t.policy.Release()

	ready <- nil

	for {
		select {
		case fn := <-t.calls:
			fn()
		case <-t.done:
			return
		}
	}
}

// do runs fn on the COM thread and waits for its result.
func (t *comThread) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case t.calls <- func() { errc <- fn() }:
	case <-t.done:
		return errClosed
	}
	return <-errc
}

// stop ends the thread after the call in progress, if any.
func (t *comThread) stop() {
	close(t.done)
	<-t.stopped
}
