package telegram

import (
	"strconv"
	"strings"

	"github.com/mcoot/teamfinder/internal/model"
)

// PlayerID is the player identifier for a Telegram user. In private chats
// the chat id equals the user id.
func PlayerID(userID int64) model.PlayerID {
	return model.PlayerID(strconv.FormatInt(userID, 10))
}

// ChatID recovers the chat id from a player identifier
func ChatID(id model.PlayerID) (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

func identity(ev *model.Event, u *User) {
	ev.UserID = PlayerID(u.ID)
	ev.DisplayName = strings.TrimSpace(u.FirstName + " " + u.LastName)
	ev.Handle = u.Username
}

// ToEvent converts an update into an engine event. ok is false for updates
// the bot ignores: bots, edits, non-text messages, group chatter.
func ToEvent(upd Update) (model.Event, bool) {
	var ev model.Event

	if cq := upd.CallbackQuery; cq != nil {
		if cq.From.IsBot || cq.Data == "" {
			return ev, false
		}
		identity(&ev, &cq.From)
		ev.Kind = model.EventOption
		ev.Tag = cq.Data
		return ev, true
	}

	msg := upd.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return ev, false
	}
	if msg.Chat.Type != "" && msg.Chat.Type != "private" {
		return ev, false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ev, false
	}
	identity(&ev, msg.From)

	if name, ok := commandName(msg, text); ok {
		ev.Kind = model.EventCommand
		ev.Command = name
		return ev, true
	}
	ev.Kind = model.EventText
	ev.Text = text
	return ev, true
}

// commandName extracts "start" from "/start" or "/start@SomeBot args"
func commandName(msg *Message, text string) (string, bool) {
	isCommand := false
	for _, e := range msg.Entities {
		if e.Type == "bot_command" && e.Offset == 0 {
			isCommand = true
			break
		}
	}
	if !isCommand && !strings.HasPrefix(text, "/") {
		return "", false
	}
	word, _, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	word, _, _ = strings.Cut(word, "@")
	if word == "" {
		return "", false
	}
	return strings.ToLower(word), true
}

// Keyboard lays out options one per row. nil when there are none.
func Keyboard(options []model.Option) *InlineKeyboardMarkup {
	if len(options) == 0 {
		return nil
	}
	rows := make([][]InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		btn := InlineKeyboardButton{Text: o.Label}
		if o.IsLink() {
			btn.URL = o.URL
		} else {
			btn.CallbackData = o.Tag
		}
		rows = append(rows, []InlineKeyboardButton{btn})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
