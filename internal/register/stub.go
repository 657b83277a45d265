//go:build !linux

package register

import "errors"

// RealRegister is not available on non-Linux platforms.
type RealRegister struct{}

// NewRealRegister returns an error on non-Linux platforms.
func NewRealRegister(chipName string, pins []int) (*RealRegister, error) {
	return nil, errors.New("register: not supported on this platform (requires Linux)")
}

// SetChannel is not implemented on non-Linux platforms.
func (r *RealRegister) SetChannel(channel, bit int) error {
	return errors.New("register: not supported")
}

// ReadAll is not implemented on non-Linux platforms.
func (r *RealRegister) ReadAll() (uint16, error) {
	return 0, errors.New("register: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealRegister) Close() error {
	return nil
}
