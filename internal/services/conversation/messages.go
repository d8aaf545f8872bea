package conversation

import (
	"strings"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/matcher"
)

const (
	welcomeText = "👋 Hi! This bot helps you find teammates.\n\n" +
		"Let's fill in your profile.\n\n🎮 Send your in-game nickname:"
	badNicknameText         = "❌ Nickname must be 2 to 30 characters. Try again:"
	restartRegistrationText = "⚠️ Your registration draft expired. Let's start over.\n\n🎮 Send your in-game nickname:"
	cancelledText           = "❌ Cancelled. Send /start to begin again."
	menuText                = "What do you want to do?"
	idleHintText            = "🤔 I didn't get that. Use the buttons below or send /start."
	staleOptionText         = "⚠️ That button is no longer active. What do you want to do?"
	pickWindowsText         = "🎮 Pick when you'll play today (several allowed):"
	noWindowsText           = "❌ Pick at least one time window!"
	notPlayingText          = "👌 Got it, you're not playing today. Changed your mind? Use the menu."
	selectionCancelledText  = "❌ Selection cancelled"
	retryText               = "⚠️ Something went wrong on our side. Please try again."
	registerFirstText       = "📝 Please register first.\n\n🎮 Send your in-game nickname:"
	nicknamePromptText      = "🎮 Send your in-game nickname:"
	finishStepNotice        = "⚠️ Finish this step first"
	confirmDateLayout       = "02.01.2006"
)

func retryRender() model.Render {
	return model.Render{Text: retryText, Notice: "⚠️ Try again"}
}

func registerFirstRender() model.Render {
	return model.Render{Text: registerFirstText}
}

func profileCardText(p *model.Player) string {
	return "🎮 Nickname: " + p.Nickname +
		"\n📊 Rank: " + string(p.Rank) +
		"\n🎯 Roles: " + roleNames(p.Roles)
}

func greetingText(p *model.Player) string {
	return "👋 Hi, " + p.Nickname + "!\n\n" +
		"📊 Your rank: " + string(p.Rank) + "\n" +
		"🎯 Roles: " + roleNames(p.Roles) + "\n\n" + menuText
}

func changePlanText(current []model.TimeWindow) string {
	var b strings.Builder
	b.WriteString("📝 Changing today's plan\n\n")
	if len(current) > 0 {
		b.WriteString("Right now you play " + windowNames(current) + "\n\n")
	} else {
		b.WriteString("You have no plan for today yet\n\n")
	}
	b.WriteString("Pick the new time:")
	return b.String()
}

// confirmationText lists the confirmed windows and who else plays then
func confirmationText(date model.Date, windows []model.TimeWindow, matches []matcher.Match) string {
	var b strings.Builder
	b.WriteString("✅ " + date.Time().Format(confirmDateLayout) + "\n\n")
	b.WriteString("Today you play " + windowNames(windows))

	if len(matches) == 0 {
		b.WriteString("\n\n🔍 Nobody else plans to play at that time yet")
		return b.String()
	}

	nicks := make([]string, len(matches))
	for i, m := range matches {
		nicks[i] = m.Player.Nickname
	}
	b.WriteString("\n\nPlaying at the same time:\n" + strings.Join(nicks, ", "))
	return b.String()
}
