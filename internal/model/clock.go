package model

// Clock is a pair of countdown timers in whole seconds. At most one side
// runs at a time. The clock does not schedule anything itself: whoever
// drives the game calls Game.Tick once per second.
type Clock struct {
	Initial   int        `json:"initialSeconds"`
	Remaining Sides[int] `json:"remaining"`
	Active    Color      `json:"active,omitempty"`
}

// NewClock returns a stopped clock. seconds <= 0 disables it.
func NewClock(seconds int) *Clock {
	if seconds < 0 {
		seconds = 0
	}
	return &Clock{
		Initial:   seconds,
		Remaining: Sides[int]{White: seconds, Black: seconds},
	}
}

func (c Clock) Enabled() bool {
	return c.Initial > 0
}

func (c Clock) Running() bool {
	return c.Active != ""
}

// Start runs side's timer, stopping the other one.
func (c *Clock) Start(side Color) {
	if !c.Enabled() {
		return
	}
	c.Active = side
}

func (c *Clock) Stop() {
	c.Active = ""
}

// Switch stops the running timer and starts side's. It does nothing when
// the clock is stopped.
func (c *Clock) Switch(side Color) {
	if c.Running() {
		c.Start(side)
	}
}

// Tick takes one second off the running side. It returns true when that
// side has just reached zero.
func (c *Clock) Tick() (flagged bool, side Color) {
	if !c.Running() {
		return false, ""
	}
	side = c.Active
	left := c.Remaining.Ptr(side)
	if *left > 0 {
		*left--
	}
	return *left == 0, side
}
