//go:build !windows

package audio

// Open reports ErrUnsupported: endpoint control is only implemented on Windows.
func Open() (*Service, error) {
	return nil, ErrUnsupported
}
