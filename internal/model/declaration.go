package model

import "time"

// DateLayout is the canonical calendar date format
const DateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form
type Date string

// DateOf returns the calendar date of t in t's location
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates and returns a Date
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return Date(s), nil
}

// Time returns midnight UTC of the date, for formatting
func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

// TimeWindow is one of four fixed, non-overlapping segments of a day
type TimeWindow string

const (
	WindowMorning TimeWindow = "morning" // 06:00-12:00
	WindowDay     TimeWindow = "day"     // 12:00-18:00
	WindowEvening TimeWindow = "evening" // 18:00-00:00
	WindowNight   TimeWindow = "night"   // 00:00-06:00
)

// Windows lists every time window in display order
var Windows = []TimeWindow{WindowMorning, WindowDay, WindowEvening, WindowNight}

// Valid reports whether w is a known window
func (w TimeWindow) Valid() bool {
	for _, known := range Windows {
		if w == known {
			return true
		}
	}
	return false
}

// ToggleWindow flips membership of w in windows, keeping insertion order.
// The input slice is not modified.
func ToggleWindow(windows []TimeWindow, w TimeWindow) []TimeWindow {
	out := make([]TimeWindow, 0, len(windows)+1)
	found := false
	for _, have := range windows {
		if have == w {
			found = true
			continue
		}
		out = append(out, have)
	}
	if !found {
		out = append(out, w)
	}
	return out
}

// SortWindows returns windows in display order with duplicates removed
func SortWindows(windows []TimeWindow) []TimeWindow {
	out := make([]TimeWindow, 0, len(windows))
	for _, known := range Windows {
		for _, w := range windows {
			if w == known {
				out = append(out, known)
				break
			}
		}
	}
	return out
}

// DailyDeclaration is a player's availability for one calendar date
type DailyDeclaration struct {
	PlayerID    PlayerID     `json:"player_id"`
	Date        Date         `json:"date"`
	IsAvailable bool         `json:"is_available"`
	Windows     []TimeWindow `json:"windows"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate enforces that an available declaration offers at least one window
// and that an unavailable one offers none
func (d *DailyDeclaration) Validate() error {
	if d.PlayerID == "" {
		return &ValidationError{Field: "player_id", Reason: "is required"}
	}
	if _, err := ParseDate(string(d.Date)); err != nil {
		return err
	}
	for _, w := range d.Windows {
		if !w.Valid() {
			return &ValidationError{Field: "windows", Reason: "unknown window " + string(w)}
		}
	}
	if d.IsAvailable && len(d.Windows) == 0 {
		return &ValidationError{Field: "windows", Reason: "available declaration needs at least one window"}
	}
	if !d.IsAvailable && len(d.Windows) > 0 {
		return &ValidationError{Field: "windows", Reason: "unavailable declaration cannot offer windows"}
	}
	return nil
}

// PlayerDeclaration pairs a declaration with its owner's profile
type PlayerDeclaration struct {
	Player      Player           `json:"player"`
	Declaration DailyDeclaration `json:"declaration"`
}
