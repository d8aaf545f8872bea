// Package matcher finds other players whose declared windows overlap a
// requested set. It performs no I/O.
package matcher

import (
	"github.com/mcoot/teamfinder/internal/model"
)

// DefaultLimit is how many teammates the confirmation message lists
const DefaultLimit = 3

// Query describes who is looking for teammates
type Query struct {
	Date    model.Date
	Windows []model.TimeWindow
	// Exclude is the requesting player, never returned
	Exclude model.PlayerID
	// Limit caps the result; zero or negative means no cap
	Limit int
}

// Match is a candidate together with the windows shared with the query
type Match struct {
	Player  model.Player
	Windows []model.TimeWindow
}

// Find returns the candidates that declared availability on q.Date in at
// least one of q.Windows. Candidate order is preserved.
func Find(q Query, candidates []model.PlayerDeclaration) []Match {
	matches := []Match{}
	if len(q.Windows) == 0 {
		return matches
	}

	for _, c := range candidates {
		if q.Limit > 0 && len(matches) >= q.Limit {
			break
		}
		decl := c.Declaration
		if decl.PlayerID == q.Exclude || c.Player.ID == q.Exclude {
			continue
		}
		if decl.Date != q.Date || !decl.IsAvailable || len(decl.Windows) == 0 {
			continue
		}
		shared := Intersect(q.Windows, decl.Windows)
		if len(shared) == 0 {
			continue
		}
		matches = append(matches, Match{Player: c.Player, Windows: shared})
	}
	return matches
}

// Intersect returns the windows present in both sets, in display order
func Intersect(a, b []model.TimeWindow) []model.TimeWindow {
	inB := make(map[model.TimeWindow]bool, len(b))
	for _, w := range b {
		inB[w] = true
	}
	shared := make([]model.TimeWindow, 0, len(a))
	for _, w := range model.SortWindows(a) {
		if inB[w] {
			shared = append(shared, w)
		}
	}
	return shared
}
