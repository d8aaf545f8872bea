package conversation

import (
	"context"
	"strings"

	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/session"
)

// State is the step of the conversation a user is in
type State = session.State

const (
	StateIdle          State = ""
	StateAwaitNickname State = "await_nickname"
	StateAwaitRank     State = "await_rank"
	StateAwaitRoles    State = "await_roles"
)

// anyState marks table rows that apply in every state
const anyState State = "*"

// Action is what an inbound event asks for, independent of transport
type Action string

const (
	ActionStart        Action = "start"
	ActionCancel       Action = "cancel"
	ActionMenu         Action = "menu"
	ActionProfile      Action = "profile"
	ActionText         Action = "text"
	ActionRank         Action = "rank"
	ActionRole         Action = "role"
	ActionRolesDone    Action = "roles_done"
	ActionEdit         Action = "edit"
	ActionPlayToday    Action = "play_today"
	ActionChangePlan   Action = "change_plan"
	ActionNotPlaying   Action = "not_playing"
	ActionSlot         Action = "slot"
	ActionSlotsConfirm Action = "slots_confirm"
	ActionSlotsCancel  Action = "slots_cancel"
	ActionUnknown      Action = "unknown"
)

// Classify maps an event to an action and its argument
func Classify(ev model.Event) (Action, string) {
	switch ev.Kind {
	case model.EventCommand:
		switch strings.ToLower(strings.TrimPrefix(ev.Command, "/")) {
		case "start":
			return ActionStart, ""
		case "cancel":
			return ActionCancel, ""
		case "menu":
			return ActionMenu, ""
		case "profile":
			return ActionProfile, ""
		}
		return ActionUnknown, ev.Command
	case model.EventText:
		return ActionText, ev.Text
	case model.EventOption:
		return classifyTag(ev.Tag)
	}
	return ActionUnknown, ""
}

func classifyTag(tag string) (Action, string) {
	switch tag {
	case TagMenu:
		return ActionMenu, ""
	case TagEditProfile:
		return ActionProfile, ""
	case TagPlayToday:
		return ActionPlayToday, ""
	case TagChangePlan:
		return ActionChangePlan, ""
	case TagNotPlaying:
		return ActionNotPlaying, ""
	case TagSlotsConfirm:
		return ActionSlotsConfirm, ""
	case TagSlotsCancel:
		return ActionSlotsCancel, ""
	case TagRolesDone:
		return ActionRolesDone, ""
	}

	prefixed := []struct {
		prefix string
		action Action
	}{
		{slotPrefix, ActionSlot},
		{editPrefix, ActionEdit},
		{rankPrefix, ActionRank},
		{rolePrefix, ActionRole},
	}
	for _, p := range prefixed {
		if arg, ok := strings.CutPrefix(tag, p.prefix); ok {
			return p.action, arg
		}
	}
	return ActionUnknown, tag
}

// turn is one event being processed. Handlers edit sess in place; it is
// persisted only when the handler returns without error.
type turn struct {
	event model.Event
	arg   string
	sess  *session.Session
	// reset drops the session instead of saving it
	reset bool
}

type handler func(e *Engine, ctx context.Context, t *turn) (model.Render, error)

type transitionKey struct {
	state  State
	action Action
}

// transitions is the whole state machine. Exact (state, action) rows win
// over anyState rows; anything unmatched goes to onUnexpected.
var transitions = map[transitionKey]handler{
	{StateAwaitNickname, ActionText}:   (*Engine).onNickname,
	{StateAwaitRank, ActionRank}:       (*Engine).onRank,
	{StateAwaitRank, ActionText}:       (*Engine).repromptRank,
	{StateAwaitRoles, ActionRole}:      (*Engine).onRoleToggle,
	{StateAwaitRoles, ActionRolesDone}: (*Engine).onRolesDone,
	{StateAwaitRoles, ActionText}:      (*Engine).repromptRoles,
	{StateIdle, ActionText}:            (*Engine).onIdleText,

	{anyState, ActionStart}:        (*Engine).onStart,
	{anyState, ActionCancel}:       (*Engine).onCancel,
	{anyState, ActionMenu}:         (*Engine).onMenu,
	{anyState, ActionProfile}:      (*Engine).onProfile,
	{anyState, ActionEdit}:         (*Engine).onEdit,
	{anyState, ActionPlayToday}:    (*Engine).onPlayToday,
	{anyState, ActionChangePlan}:   (*Engine).onChangePlan,
	{anyState, ActionNotPlaying}:   (*Engine).onNotPlaying,
	{anyState, ActionSlot}:         (*Engine).onSlot,
	{anyState, ActionSlotsConfirm}: (*Engine).onSlotsConfirm,
	{anyState, ActionSlotsCancel}:  (*Engine).onSlotsCancel,
}

func lookup(state State, action Action) handler {
	if h, ok := transitions[transitionKey{state, action}]; ok {
		return h
	}
	if h, ok := transitions[transitionKey{anyState, action}]; ok {
		return h
	}
	return (*Engine).onUnexpected
}

// promptState is the state collecting field f
func promptState(f model.ProfileField) State {
	switch f {
	case model.FieldNickname:
		return StateAwaitNickname
	case model.FieldRank:
		return StateAwaitRank
	case model.FieldRoles:
		return StateAwaitRoles
	}
	return StateIdle
}
