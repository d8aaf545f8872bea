package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case TodayResult:
		o.printToday(v)
	case StatsResult:
		o.printStats(v)
	case BroadcastResult:
		o.printBroadcast(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// AvailablePlayer response type (matches API)
type AvailablePlayer struct {
	ID       string   `json:"id"`
	Nickname string   `json:"nickname"`
	Rank     string   `json:"rank"`
	Roles    []string `json:"roles"`
	Handle   string   `json:"handle,omitempty"`
	Windows  []string `json:"windows"`
}

// TodayResult response type
type TodayResult struct {
	Date    string            `json:"date"`
	Count   int               `json:"count"`
	Players []AvailablePlayer `json:"players"`
}

// StatsResult response type
type StatsResult struct {
	TotalPlayers int    `json:"total_players"`
	PlayingToday int    `json:"playing_today"`
	Date         string `json:"date"`
}

// BroadcastResult response type
type BroadcastResult struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Attempted int       `json:"attempted"`
	Delivered int       `json:"delivered"`
	Failed    []string  `json:"failed"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if !h.Time.IsZero() {
		fmt.Fprintf(o.w, "Server time: %s\n", h.Time.Format(time.RFC3339))
	}
}

func (o *Output) printToday(t TodayResult) {
	fmt.Fprintf(o.w, "Playing on %s: %d\n", t.Date, t.Count)
	for _, p := range t.Players {
		handle := ""
		if p.Handle != "" {
			handle = " @" + p.Handle
		}
		fmt.Fprintf(o.w, "  - %s%s [%s] %s: %s\n",
			p.Nickname, handle, p.Rank, strings.Join(p.Roles, "/"), strings.Join(p.Windows, ", "))
	}
}

func (o *Output) printStats(s StatsResult) {
	fmt.Fprintf(o.w, "Date: %s\n", s.Date)
	fmt.Fprintf(o.w, "Registered players: %d\n", s.TotalPlayers)
	fmt.Fprintf(o.w, "Playing today: %d\n", s.PlayingToday)
}

func (o *Output) printBroadcast(b BroadcastResult) {
	fmt.Fprintf(o.w, "Broadcast %s\n", b.RunID)
	fmt.Fprintf(o.w, "Delivered: %d/%d\n", b.Delivered, b.Attempted)
	if len(b.Failed) > 0 {
		fmt.Fprintf(o.w, "Failed: %s\n", strings.Join(b.Failed, ", "))
	}
}
