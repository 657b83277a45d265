//go:build linux

package register

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealRegister drives actuator channels through Linux GPIO output lines.
// Line k-1 of lines carries channel k.
type RealRegister struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// NewRealRegister opens the named GPIO chip and requests one output line per
// entry of pins (BCM numbering), where pins[k-1] carries channel k. Every
// line is requested with an initial value of 0, so construction drives all
// channels to the de-energized (closed) state. A missing chip or line is
// returned as an error; callers treat it as fatal at startup.
func NewRealRegister(chipName string, pins []int) (*RealRegister, error) {
	if len(pins) == 0 {
		return nil, fmt.Errorf("no channel pins configured")
	}
	if len(pins) > 16 {
		return nil, fmt.Errorf("too many channels: %d (max 16)", len(pins))
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	lines := make([]*gpiocdev.Line, len(pins))
	for i, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			for _, l := range lines[:i] {
				l.Close()
			}
			chip.Close()
			return nil, fmt.Errorf("request channel %d pin %d: %w", i+1, pin, err)
		}
		lines[i] = line
	}

	return &RealRegister{
		chip:  chip,
		lines: lines,
	}, nil
}

// SetChannel writes one channel's output line.
func (r *RealRegister) SetChannel(channel, bit int) error {
	if channel < 1 || channel > len(r.lines) {
		return fmt.Errorf("set channel %d: out of range (1-%d)", channel, len(r.lines))
	}
	if bit != 0 && bit != 1 {
		return fmt.Errorf("set channel %d: bad bit %d", channel, bit)
	}
	if err := r.lines[channel-1].SetValue(bit); err != nil {
		return fmt.Errorf("set channel %d: %w", channel, err)
	}
	return nil
}

// ReadAll reads back every output line and packs the values into one mask.
func (r *RealRegister) ReadAll() (uint16, error) {
	var mask uint16
	for i, line := range r.lines {
		v, err := line.Value()
		if err != nil {
			return 0, fmt.Errorf("read channel %d: %w", i+1, err)
		}
		if v != 0 {
			mask |= 1 << uint(i)
		}
	}
	return mask, nil
}

// Close releases the lines without changing their levels. Valves hold their
// commanded state across a controller shutdown; the fail-safe close-all
// happens at startup only.
func (r *RealRegister) Close() error {
	var errs []error

	for i, line := range r.lines {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel %d: %w", i+1, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
