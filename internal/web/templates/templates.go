package templates

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/mcoot/teamfinder/internal/model"
)

//go:embed *.html
var files embed.FS

var windowLabels = map[model.TimeWindow]string{
	model.WindowMorning: "🌅 Morning",
	model.WindowDay:     "☀️ Day",
	model.WindowEvening: "🌆 Evening",
	model.WindowNight:   "🌙 Night",
}

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
	"windowLabel": func(w model.TimeWindow) string {
		if label, ok := windowLabels[w]; ok {
			return label
		}
		return string(w)
	},
}).ParseFS(files, "*.html"))

// TodayPlayer is one row of the today page
type TodayPlayer struct {
	ID       model.PlayerID
	Nickname string
	Rank     model.Rank
	Roles    []string
	Windows  []model.TimeWindow
}

// TodayData is the view model of the today page
type TodayData struct {
	Date        model.Date
	DisplayDate string
	Players     []TodayPlayer
}

// Today renders the "who plays today" page
func Today(w io.Writer, data TodayData) error {
	return pages.ExecuteTemplate(w, "today.html", data)
}
