package conversation

import (
	"strings"

	"github.com/mcoot/teamfinder/internal/model"
)

// Option tags carried back by the transport when a button is pressed
const (
	TagMenu         = "menu"
	TagPlayToday    = "play_today"
	TagChangePlan   = "change_plan"
	TagNotPlaying   = "not_playing"
	TagSlotsConfirm = "slots_confirm"
	TagSlotsCancel  = "slots_cancel"
	TagEditProfile  = "edit_profile"
	TagRolesDone    = "roles_done"

	slotPrefix = "slot:"
	editPrefix = "edit:"
	rankPrefix = "rank:"
	rolePrefix = "role:"
)

const selectedMark = "✅ "

// SlotTag is the tag toggling window w
func SlotTag(w model.TimeWindow) string { return slotPrefix + string(w) }

// EditTag is the tag starting the edit flow for field f
func EditTag(f model.ProfileField) string { return editPrefix + string(f) }

// RankTag is the tag picking rank r
func RankTag(r model.Rank) string { return rankPrefix + string(r) }

// RoleTag is the tag toggling role r
func RoleTag(r model.Role) string { return rolePrefix + string(r) }

var windowLabels = map[model.TimeWindow]string{
	model.WindowMorning: "🌅 Morning (06:00-12:00)",
	model.WindowDay:     "☀️ Day (12:00-18:00)",
	model.WindowEvening: "🌆 Evening (18:00-00:00)",
	model.WindowNight:   "🌙 Night (00:00-06:00)",
}

// Window names as used inside a sentence
var windowPhrases = map[model.TimeWindow]string{
	model.WindowMorning: "in the morning",
	model.WindowDay:     "during the day",
	model.WindowEvening: "in the evening",
	model.WindowNight:   "at night",
}

var roleLabels = map[model.Role]string{
	model.RoleDuelist:    "💨 Duelist",
	model.RoleSentinel:   "🛡 Sentinel",
	model.RoleInitiator:  "⚡ Initiator",
	model.RoleController: "🎯 Controller",
}

func tagOption(label, tag string) model.Option {
	return model.Option{Label: label, Tag: tag}
}

func marked(label string, on bool) string {
	if on {
		return selectedMark + label
	}
	return label
}

// MainMenuOptions is the menu shown after every completed flow.
// The "who plays today" link is omitted when todayURL is empty.
func MainMenuOptions(todayURL string) []model.Option {
	opts := []model.Option{
		tagOption("🎮 I'll play today", TagPlayToday),
		tagOption("📝 Change today's plan", TagChangePlan),
	}
	if todayURL != "" {
		opts = append(opts, model.Option{Label: "👥 Who plays today?", URL: todayURL})
	}
	return append(opts, tagOption("⚙️ Edit profile", TagEditProfile))
}

// EditMenuOptions lists the editable profile fields
func EditMenuOptions() []model.Option {
	return []model.Option{
		tagOption("🎮 Nickname", EditTag(model.FieldNickname)),
		tagOption("📊 Rank", EditTag(model.FieldRank)),
		tagOption("🎯 Roles", EditTag(model.FieldRoles)),
		tagOption("⬅️ Back", TagMenu),
	}
}

// RankOptions lists every rank, lowest first
func RankOptions() []model.Option {
	opts := make([]model.Option, 0, len(model.Ranks))
	for _, r := range model.Ranks {
		opts = append(opts, tagOption(string(r), RankTag(r)))
	}
	return opts
}

// RoleOptions lists every role, marking the selected ones. The confirm
// entry is only offered once something is selected.
func RoleOptions(selected []model.Role) []model.Option {
	opts := make([]model.Option, 0, len(model.Roles)+1)
	for _, r := range model.Roles {
		on := false
		for _, s := range selected {
			if s == r {
				on = true
				break
			}
		}
		opts = append(opts, tagOption(marked(roleLabels[r], on), RoleTag(r)))
	}
	if len(selected) > 0 {
		opts = append(opts, tagOption("✅ Done", TagRolesDone))
	}
	return opts
}

// WindowOptions lists every time window, marking the selected ones
func WindowOptions(selected []model.TimeWindow) []model.Option {
	opts := make([]model.Option, 0, len(model.Windows)+2)
	for _, w := range model.Windows {
		on := false
		for _, s := range selected {
			if s == w {
				on = true
				break
			}
		}
		opts = append(opts, tagOption(marked(windowLabels[w], on), SlotTag(w)))
	}
	if len(selected) > 0 {
		opts = append(opts, tagOption("✅ Confirm", TagSlotsConfirm))
	}
	return append(opts, tagOption("❌ Cancel", TagSlotsCancel))
}

// ReminderOptions are offered by the daily broadcast
func ReminderOptions() []model.Option {
	return []model.Option{
		tagOption("🎮 I'll play today", TagPlayToday),
		tagOption("❌ Not playing", TagNotPlaying),
	}
}

// Reminder is the broadcast message addressed to one player
func Reminder(p *model.Player) model.Render {
	return model.Render{
		Text:    "👋 Hey, " + p.Nickname + "!\n\nPlaying today?",
		Options: ReminderOptions(),
	}
}

func roleNames(roles []model.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func windowNames(windows []model.TimeWindow) string {
	names := make([]string, 0, len(windows))
	for _, w := range model.SortWindows(windows) {
		names = append(names, windowPhrases[w])
	}
	return strings.Join(names, ", ")
}
