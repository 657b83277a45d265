// Package register provides the channel register that drives the valve
// actuator outputs. The real implementation uses the Linux GPIO character
// device. The fake implementation allows testing without hardware.
package register

// Register holds the live state of all output channels. Channels are
// numbered from 1; bit (k-1) of the ReadAll mask corresponds to channel k.
type Register interface {
	// SetChannel writes a single channel. bit must be 0 or 1.
	SetChannel(channel, bit int) error

	// ReadAll returns a snapshot of every channel's state in one mask.
	// The hardware is the single source of truth for valve state, so
	// callers re-read this on every decision rather than caching it.
	ReadAll() (uint16, error)

	// Close releases hardware resources.
	Close() error
}

// Bit extracts channel k's state from a ReadAll mask.
func Bit(mask uint16, channel int) int {
	return int((mask >> uint(channel-1)) & 1)
}
