package system

import (
	"fmt"
	"time"

	"github.com/sweeney/valve-controller/internal/register"
)

// Blinker signals readiness on a spare register channel: a short blink
// sequence, then the channel is held high. The ready channel is disjoint
// from every valve channel (config validation enforces this), so the
// sequence can never touch a valve.
type Blinker struct {
	reg     register.Register
	channel int

	// Blinks is the number of on/off cycles before the steady level.
	Blinks int

	// Interval is the half-period of a blink.
	Interval time.Duration

	// sleep is injectable for tests.
	sleep func(time.Duration)
}

// NewBlinker creates a Blinker for the given channel. Channel 0 disables
// the indicator.
func NewBlinker(reg register.Register, channel int) *Blinker {
	return &Blinker{
		reg:      reg,
		channel:  channel,
		Blinks:   3,
		Interval: 250 * time.Millisecond,
		sleep:    time.Sleep,
	}
}

// Run performs the blink sequence and leaves the channel high. It blocks
// for the duration of the sequence; callers run it on its own goroutine.
func (b *Blinker) Run() error {
	if b.channel == 0 {
		return nil
	}

	for i := 0; i < b.Blinks; i++ {
		if err := b.reg.SetChannel(b.channel, 1); err != nil {
			return fmt.Errorf("ready blink: %w", err)
		}
		b.sleep(b.Interval)
		if err := b.reg.SetChannel(b.channel, 0); err != nil {
			return fmt.Errorf("ready blink: %w", err)
		}
		b.sleep(b.Interval)
	}

	if err := b.reg.SetChannel(b.channel, 1); err != nil {
		return fmt.Errorf("ready level: %w", err)
	}
	return nil
}
