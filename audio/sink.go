package audio

// Sink is an audio destination with its own clock. Everything scheduled on it is stamped
// with a time in seconds on that clock and carried out asynchronously.
type Sink interface {
	// Now returns the current time of the sink's clock in seconds.
	Now() float64
	// NewBus creates a channel strip: a volume control feeding independent left and right gains.
	NewBus() Bus
}

// Bus is a mono input panned to stereo. Sounds played on a bus go through its volume and pan controls.
type Bus interface {
	Volume() Param
	PanLeft() Param
	PanRight() Param

	// Play schedules buf to start at time at. rate scales the buffer's natural sample rate.
	// A looping sound repeats until it is stopped or its loop flag is cleared.
	Play(buf *Buffer, rate float64, loop bool, at float64) Sound

	// Connect routes the bus to the sink's output. Buses start disconnected.
	Connect()
	// Disconnect silences the bus. Scheduled sounds keep advancing while disconnected.
	Disconnect()
}

// Param is an automatable gain.
type Param interface {
	// Value returns the value at the sink's current time.
	Value() float64
	// Ramp holds the value at from until time at, then moves linearly to reach to at time end.
	// Ramps replace any automation scheduled at or after at.
	Ramp(from, at, to, end float64)
	// Cancel drops all scheduled automation and holds the current value.
	Cancel()
}

// Sound is a handle to a scheduled buffer playback.
type Sound interface {
	// Stop ends playback at time at. A time in the past stops it immediately; a sound that has not
	// started by then never plays.
	Stop(at float64)
	// SetLoop changes the loop flag. Clearing it lets a looping sound finish its current cycle and end.
	SetLoop(loop bool)
}
