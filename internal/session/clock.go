package session

// Clock is a countdown measured in whole seconds. It does not own a timer;
// callers drive it through Tick, usually from a Ticker.
type Clock struct {
	remaining int
	running   bool
	paused    bool
	expired   bool
}

// ClockState is the serializable view of a Clock.
type ClockState struct {
	RemainingSeconds int  `json:"remaining_seconds"`
	Running          bool `json:"running"`
	Paused           bool `json:"paused"`
	Expired          bool `json:"expired"`
}

func NewClock(seconds int) *Clock {
	if seconds < 0 {
		seconds = 0
	}
	return &Clock{remaining: seconds}
}

// Start begins the countdown. It is a no-op when the clock is already
// running or has expired.
func (c *Clock) Start() {
	if c.running || c.expired {
		return
	}
	c.running = true
	c.paused = false
}

// Tick decrements the clock by one second. It returns true exactly once,
// on the tick that brings the clock to zero, and stops the clock.
func (c *Clock) Tick() bool {
	if !c.running || c.paused || c.expired {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.expired = true
		c.running = false
		return true
	}
	return false
}

func (c *Clock) Pause() {
	if c.running {
		c.paused = true
	}
}

func (c *Clock) Resume() {
	c.paused = false
}

// Stop halts the clock without expiring it.
func (c *Clock) Stop() {
	c.running = false
	c.paused = false
}

func (c *Clock) Remaining() int { return c.remaining }
func (c *Clock) Running() bool  { return c.running }
func (c *Clock) Paused() bool   { return c.paused }
func (c *Clock) Expired() bool  { return c.expired }

func (c *Clock) State() ClockState {
	return ClockState{
		RemainingSeconds: c.remaining,
		Running:          c.running,
		Paused:           c.paused,
		Expired:          c.expired,
	}
}
