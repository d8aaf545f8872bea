package clock

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/mcoot/teamfinder/internal/model"
)

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Calendar answers "what day is it" for the whole process.
//
// The display timezone is resolved to a fixed UTC offset exactly once, when
// the Calendar is built. Declarations, matching and scheduler triggers all
// derive their dates from that one offset, so they never disagree about the
// day boundary. DST transitions after startup are not followed; restart the
// process to pick up a new offset.
type Calendar struct {
	clock Clock
	zone  *time.Location
}

// NewCalendar resolves the named IANA timezone against the clock's current
// instant and pins its offset
func NewCalendar(clk Clock, timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	name, offset := clk.Now().In(loc).Zone()
	return &Calendar{
		clock: clk,
		zone:  time.FixedZone(name, offset),
	}, nil
}

// NewFixedCalendar builds a Calendar with an explicit UTC offset
func NewFixedCalendar(clk Clock, name string, offset time.Duration) *Calendar {
	return &Calendar{
		clock: clk,
		zone:  time.FixedZone(name, int(offset/time.Second)),
	}
}

// Now returns the current instant in the display zone
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.zone)
}

// Today returns the current calendar date in the display zone
func (c *Calendar) Today() model.Date {
	return model.DateOf(c.Now())
}

// Zone returns the pinned display zone
func (c *Calendar) Zone() *time.Location {
	return c.zone
}

// Offset returns the display zone's offset east of UTC
func (c *Calendar) Offset() time.Duration {
	_, offset := time.Unix(0, 0).In(c.zone).Zone()
	return time.Duration(offset) * time.Second
}
