package register

import (
	"fmt"
	"sync"
)

// Write records a single SetChannel call for test assertions.
type Write struct {
	Channel int
	Bit     int
}

// FakeRegister is an in-memory test double for the channel register.
// It holds the mask directly and records every write in order.
// Safe for concurrent use.
type FakeRegister struct {
	mu sync.Mutex

	// mask holds the current channel states.
	mask uint16

	// channels is the number of configured channels.
	channels int

	// Writes contains every SetChannel call in order.
	Writes []Write

	// ReadErr, if set, is returned by ReadAll.
	ReadErr error

	// WriteErr, if set, is returned by SetChannel.
	WriteErr error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRegister creates a FakeRegister with the given number of channels,
// all starting at 0.
func NewFakeRegister(channels int) *FakeRegister {
	return &FakeRegister{channels: channels}
}

// SetChannel sets one channel's bit in the mask and records the write.
func (f *FakeRegister) SetChannel(channel, bit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteErr != nil {
		return f.WriteErr
	}
	if channel < 1 || channel > f.channels {
		return fmt.Errorf("set channel %d: out of range (1-%d)", channel, f.channels)
	}
	if bit != 0 && bit != 1 {
		return fmt.Errorf("set channel %d: bad bit %d", channel, bit)
	}

	if bit == 1 {
		f.mask |= 1 << uint(channel-1)
	} else {
		f.mask &^= 1 << uint(channel-1)
	}
	f.Writes = append(f.Writes, Write{Channel: channel, Bit: bit})
	return nil
}

// ReadAll returns the current mask.
func (f *FakeRegister) ReadAll() (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadErr != nil {
		return 0, f.ReadErr
	}
	return f.mask, nil
}

// Close marks the register as closed.
func (f *FakeRegister) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Preset forces the mask to a value without recording writes. Used by tests
// to set up a scenario.
func (f *FakeRegister) Preset(mask uint16) {
	f.mu.Lock()
	f.mask = mask
	f.mu.Unlock()
}

// Bit returns channel k's current state.
func (f *FakeRegister) Bit(channel int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Bit(f.mask, channel)
}

// WriteCount returns the number of SetChannel calls recorded so far.
func (f *FakeRegister) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}

// Reset clears the mask, the write log, and any injected errors.
func (f *FakeRegister) Reset() {
	f.mu.Lock()
	f.mask = 0
	f.Writes = nil
	f.ReadErr = nil
	f.WriteErr = nil
	f.Closed = false
	f.mu.Unlock()
}
